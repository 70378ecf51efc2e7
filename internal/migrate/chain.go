package migrate

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

const (
	// Base is the version of an empty database.
	Base = "base"
	// Head resolves to the newest step in the chain.
	Head = "head"

	revisesPrefix = "-- revises:"
)

var (
	// ErrInvalidChain is returned when the migration files do not form a
	// single linear history.
	ErrInvalidChain = errors.New("invalid migration chain")
	// ErrUnknownVersion is returned for a version that is not in the chain.
	ErrUnknownVersion = errors.New("unknown migration version")
	// ErrVersionMismatch is returned when a step's predecessor is not the
	// version currently recorded in the database.
	ErrVersionMismatch = errors.New("database version does not match migration predecessor")
)

// Step is one reversible schema change.
type Step struct {
	Version string
	Name    string
	Revises string
	Up      string
	Down    string
}

func (s *Step) String() string {
	return s.Version + "_" + s.Name
}

// Chain is an ordered, validated list of steps, oldest first.
type Chain struct {
	steps []*Step
	index map[string]int
}

// Load reads NNNN_name.up.sql / NNNN_name.down.sql pairs from the root of
// fsys. Every up file must start with a "-- revises: <version>" header naming
// its predecessor ("base" for the first step).
func Load(fsys fs.FS) (*Chain, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	byVersion := make(map[string]*Step)
	downs := make(map[string]string)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		file := entry.Name()

		var direction string
		switch {
		case strings.HasSuffix(file, ".up.sql"):
			direction = "up"
		case strings.HasSuffix(file, ".down.sql"):
			direction = "down"
		default:
			continue
		}

		stem := strings.TrimSuffix(file, "."+direction+".sql")
		version, name, ok := strings.Cut(stem, "_")
		if !ok || version == "" || name == "" {
			return nil, fmt.Errorf("%w: file %s is not named NNNN_name.%s.sql", ErrInvalidChain, file, direction)
		}
		if version == Base || version == Head {
			return nil, fmt.Errorf("%w: version %q is reserved", ErrInvalidChain, version)
		}

		content, err := fs.ReadFile(fsys, path.Clean(file))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", file, err)
		}

		if direction == "down" {
			if _, dup := downs[version]; dup {
				return nil, fmt.Errorf("%w: duplicate down migration for version %s", ErrInvalidChain, version)
			}
			downs[version] = string(content)
			continue
		}

		if _, dup := byVersion[version]; dup {
			return nil, fmt.Errorf("%w: duplicate up migration for version %s", ErrInvalidChain, version)
		}
		revises, err := parseRevises(string(content))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidChain, file, err)
		}
		byVersion[version] = &Step{
			Version: version,
			Name:    name,
			Revises: revises,
			Up:      string(content),
		}
	}

	for version, down := range downs {
		step, ok := byVersion[version]
		if !ok {
			return nil, fmt.Errorf("%w: down migration %s has no up migration", ErrInvalidChain, version)
		}
		step.Down = down
	}
	for version, step := range byVersion {
		if _, ok := downs[version]; !ok {
			return nil, fmt.Errorf("%w: migration %s has no down migration", ErrInvalidChain, step)
		}
	}

	return newChain(byVersion)
}

// newChain links steps by predecessor and rejects anything that is not a
// single line from base to one head.
func newChain(byVersion map[string]*Step) (*Chain, error) {
	children := make(map[string][]*Step)
	for _, step := range byVersion {
		if step.Revises != Base {
			if _, ok := byVersion[step.Revises]; !ok {
				return nil, fmt.Errorf("%w: %s revises unknown version %s", ErrInvalidChain, step, step.Revises)
			}
		}
		children[step.Revises] = append(children[step.Revises], step)
	}

	for parent, kids := range children {
		if len(kids) > 1 {
			names := make([]string, len(kids))
			for i, k := range kids {
				names[i] = k.String()
			}
			sort.Strings(names)
			return nil, fmt.Errorf("%w: %s has multiple successors (%s)", ErrInvalidChain, parent, strings.Join(names, ", "))
		}
	}

	c := &Chain{index: make(map[string]int, len(byVersion))}
	for cur := Base; ; {
		kids := children[cur]
		if len(kids) == 0 {
			break
		}
		next := kids[0]
		c.index[next.Version] = len(c.steps)
		c.steps = append(c.steps, next)
		cur = next.Version
	}

	if len(c.steps) != len(byVersion) {
		return nil, fmt.Errorf("%w: %d of %d migrations are not reachable from base", ErrInvalidChain, len(byVersion)-len(c.steps), len(byVersion))
	}

	return c, nil
}

func parseRevises(content string) (string, error) {
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, revisesPrefix) {
			return "", fmt.Errorf("first line must be %q", revisesPrefix+" <version>")
		}
		revises := strings.TrimSpace(strings.TrimPrefix(line, revisesPrefix))
		if revises == "" {
			return "", errors.New("empty revises header")
		}
		return revises, nil
	}
	return "", errors.New("missing revises header")
}

// Steps returns the steps oldest first.
func (c *Chain) Steps() []*Step {
	out := make([]*Step, len(c.steps))
	copy(out, c.steps)
	return out
}

// Head returns the newest version, or Base for an empty chain.
func (c *Chain) Head() string {
	if len(c.steps) == 0 {
		return Base
	}
	return c.steps[len(c.steps)-1].Version
}

// Step looks up a step by version.
func (c *Chain) Step(version string) (*Step, bool) {
	i, ok := c.index[version]
	if !ok {
		return nil, false
	}
	return c.steps[i], true
}

// position maps a version to its chain index; Base is -1 and Head the last
// index.
func (c *Chain) position(version string) (int, error) {
	switch version {
	case Base:
		return -1, nil
	case Head:
		return len(c.steps) - 1, nil
	}
	i, ok := c.index[version]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownVersion, version)
	}
	return i, nil
}
