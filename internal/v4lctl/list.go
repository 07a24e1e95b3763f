package v4lctl

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ListedAttribute is one row of `v4lctl list`.
type ListedAttribute struct {
	Name    string
	Type    string
	Current string
	Default string
	Comment string
}

// List runs `v4lctl -c <device> list` and parses the attribute table.
// v4lctl truncates names and values to the column width ("Composi"), so the
// result is for display and schema comparison only.
func (e *Executor) List(ctx context.Context) ([]ListedAttribute, error) {
	args := e.args("list")
	cmdline := e.commandLine(args)

	stdout, stderr, err := e.run(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w (stderr: %s)", cmdline, err, strings.TrimSpace(stderr))
	}

	attrs := ParseList(stdout)

	e.logger.Info("v4lctl list",
		zap.String("command", cmdline),
		zap.Int("attributes", len(attrs)),
	)

	return attrs, nil
}

// ParseList parses the table printed by `v4lctl list`:
//
//	attribute  | type   | current | default | comment
//	-----------+--------+---------+---------+--------
//	bright     | int    |   32768 |   32768 | range is 0 => 65280
func ParseList(output string) []ListedAttribute {
	var attrs []ListedAttribute

	sc := bufio.NewScanner(strings.NewReader(output))
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "-") || !strings.Contains(line, "|") {
			continue
		}

		cols := strings.Split(line, "|")
		for i := range cols {
			cols[i] = strings.TrimSpace(cols[i])
		}
		if len(cols) < 4 || cols[0] == "attribute" {
			continue
		}

		a := ListedAttribute{
			Name:    cols[0],
			Type:    cols[1],
			Current: cols[2],
			Default: cols[3],
		}
		if len(cols) > 4 {
			a.Comment = cols[4]
		}
		attrs = append(attrs, a)
	}

	return attrs
}
