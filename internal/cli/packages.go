package cli

import (
	"context"
	"fmt"
	"strings"

	"pakd/internal/ui"
	"pakd/pkg/backend"
	"pakd/pkg/scheduler"
	"pakd/pkg/transaction"
)

// resolvePackages turns command arguments into package ids. Arguments
// already in "name;version;arch;data" form are used as they are; plain
// names are resolved with filter f and, when several candidates match, the
// user picks one (or the newest is taken with --yes).
func resolvePackages(ctx context.Context, args []string, f backend.Filter) ([]string, error) {
	if len(args) == 0 {
		return nil, ErrNoPackages
	}

	var ids, names []string
	for _, arg := range cfg.ResolveAliases(args) {
		if strings.Count(arg, ";") == 3 {
			if _, err := backend.ParsePackageID(arg); err != nil {
				return nil, err
			}
			ids = append(ids, arg)
			continue
		}
		names = append(names, arg)
	}
	if len(names) == 0 {
		return ids, nil
	}

	res, err := resolveNames(ctx, names, f)
	if err != nil {
		return nil, err
	}

	byName := make(map[string][]backend.PackageID)
	for _, p := range res.Packages() {
		byName[p.ID.Name] = appendUnique(byName[p.ID.Name], p.ID)
	}
	for _, name := range names {
		candidates := byName[name]
		if len(candidates) == 0 && len(names) == 1 {
			candidates = packageIDs(res)
		} else if len(candidates) == 0 {
			// A virtual name resolves to its providers, which carry their
			// own names. Resolve it alone so every result belongs to it.
			if candidates, err = providersOf(ctx, name, f); err != nil {
				return nil, err
			}
		}
		if len(candidates) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrPackageNotFound, name)
		}
		var pick backend.PackageID
		if yes || len(candidates) == 1 {
			pick = newest(candidates)
		} else {
			pick, err = ui.SelectPackage(candidates, "Select a package for "+name)
			if err != nil {
				return nil, err
			}
		}
		ids = append(ids, pick.String())
	}
	return ids, nil
}

func resolveNames(ctx context.Context, names []string, f backend.Filter) (scheduler.Result, error) {
	res, err := follow(ctx, transaction.Request{
		Role:    backend.RoleResolve,
		Filters: f | filters,
		Names:   names,
	}, runOptions{quiet: true, label: "Resolving " + strings.Join(names, ", ")})
	if err != nil {
		return res, err
	}
	return res, outcome(res)
}

func providersOf(ctx context.Context, name string, f backend.Filter) ([]backend.PackageID, error) {
	res, err := resolveNames(ctx, []string{name}, f)
	if err != nil {
		return nil, err
	}
	return packageIDs(res), nil
}

func packageIDs(res scheduler.Result) []backend.PackageID {
	var ids []backend.PackageID
	for _, p := range res.Packages() {
		ids = appendUnique(ids, p.ID)
	}
	return ids
}

func appendUnique(ids []backend.PackageID, id backend.PackageID) []backend.PackageID {
	for _, have := range ids {
		if have == id {
			return ids
		}
	}
	return append(ids, id)
}

func newest(ids []backend.PackageID) backend.PackageID {
	best := ids[0]
	for _, id := range ids[1:] {
		if backend.CompareVersions(id.Version, best.Version) > 0 {
			best = id
		}
	}
	return best
}

// confirmPackages lists ids and asks before a mutating operation.
func confirmPackages(action string, ids []string) error {
	ui.HeaderMsg("%s %d package(s):", action, len(ids))
	for _, id := range ids {
		ui.Println("  %s %s", ui.SymbolArrow, id)
	}
	if yes {
		return nil
	}
	ok, err := ui.Confirm("Proceed", true)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAborted
	}
	return nil
}
