package main

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// tenantGuard scans the repository layer and ensures every statement runs on a
// connection obtained from the tenant router, never on a pool held directly.
// Exit code 0 = ok, 1 = violation, 2 = other error.
func main() {
	root := "internal/repo"
	if len(os.Args) > 1 {
		root = os.Args[1]
	}
	deny, err := scan(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tenant_guard error: %v\n", err)
		os.Exit(2)
	}
	if len(deny) > 0 {
		for _, v := range deny {
			fmt.Fprintf(os.Stderr, "VIOLATION: %s\n", v)
		}
		os.Exit(1)
	}
	fmt.Println("tenant_guard: OK")
}

var (
	reCall   = regexp.MustCompile(`([\w.()]+)\.(Query|QueryRow|Exec|Begin)\(ctx`)
	reAssign = regexp.MustCompile(`\bdb\s*:?=\s*(.+)$`)
	allowed  = map[string]bool{"s.Router.For(ctx)": true, "db": true, "tx": true}
)

func scan(dir string) ([]string, error) {
	var violations []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".go" || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		found, err := checkFile(path)
		if err != nil {
			return err
		}
		violations = append(violations, found...)
		return nil
	})
	return violations, err
}

// checkFile reports each line that queries through an unrouted receiver or
// binds db to anything but the router.
func checkFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	var out []string
	s := bufio.NewScanner(f)
	for n := 1; s.Scan(); n++ {
		line := strings.TrimSpace(s.Text())
		if strings.HasPrefix(line, "//") {
			continue
		}
		for _, m := range reCall.FindAllStringSubmatch(line, -1) {
			if !allowed[m[1]] {
				out = append(out, fmt.Sprintf("%s:%d: %s via %s", path, n, m[2], m[1]))
			}
		}
		if m := reAssign.FindStringSubmatch(line); m != nil && strings.TrimSpace(m[1]) != "s.Router.For(ctx)" {
			out = append(out, fmt.Sprintf("%s:%d: db bound to %s", path, n, strings.TrimSpace(m[1])))
		}
	}
	return out, s.Err()
}
