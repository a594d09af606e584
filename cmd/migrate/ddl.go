package main

import (
	"fmt"
	"regexp"
	"strings"
)

// databasePath is a parsed projects/P/instances/I/databases/D name.
type databasePath struct {
	Project    string
	InstanceID string
	DatabaseID string
}

func parseDatabasePath(s string) (databasePath, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 6 || parts[0] != "projects" || parts[2] != "instances" || parts[4] != "databases" ||
		parts[1] == "" || parts[3] == "" || parts[5] == "" {
		return databasePath{}, fmt.Errorf("expected projects/PROJECT/instances/INSTANCE/databases/DATABASE, got %q", s)
	}
	return databasePath{Project: parts[1], InstanceID: parts[3], DatabaseID: parts[5]}, nil
}

func (d databasePath) Instance() string {
	return fmt.Sprintf("projects/%s/instances/%s", d.Project, d.InstanceID)
}

func (d databasePath) String() string {
	return d.Instance() + "/databases/" + d.DatabaseID
}

var createObject = regexp.MustCompile(`(?i)^CREATE\s+(?:UNIQUE\s+|NULL_FILTERED\s+)*(TABLE|INDEX)\s+(?:IF\s+NOT\s+EXISTS\s+)?` + "`?" + `(\w+)`)

// objectNames returns the tables and indexes created by statements, keyed
// "TABLE name" or "INDEX name".
func objectNames(statements []string) map[string]bool {
	names := make(map[string]bool, len(statements))
	for _, stmt := range statements {
		if m := createObject.FindStringSubmatch(strings.TrimSpace(stmt)); m != nil {
			names[strings.ToUpper(m[1])+" "+strings.ToLower(m[2])] = true
		}
	}
	return names
}

// pendingStatements drops the CREATE statements of objects in existing.
// Other statements are always kept.
func pendingStatements(statements []string, existing map[string]bool) []string {
	var pending []string
	for _, stmt := range statements {
		m := createObject.FindStringSubmatch(stmt)
		if m != nil && existing[strings.ToUpper(m[1])+" "+strings.ToLower(m[2])] {
			continue
		}
		pending = append(pending, stmt)
	}
	return pending
}

func splitDDLStatements(content string) []string {
	lines := strings.Split(content, "\n")
	var cleaned []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		cleaned = append(cleaned, line)
	}

	var result []string
	for _, stmt := range strings.Split(strings.Join(cleaned, "\n"), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			result = append(result, stmt)
		}
	}
	return result
}
