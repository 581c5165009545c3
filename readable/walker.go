package readable

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/h5data/hdf5"
)

// walkEntry is one pending group on the traversal stack.
type walkEntry struct {
	group *hdf5.Group
	path  string
}

// walkDatasets enumerates every dataset path in the container in
// deterministic depth-first order (the container's native link order
// within each group). Groups are tracked by object header address, not by
// path, so cyclic or shared link structures are visited exactly once and
// never re-entered.
func walkDatasets(f *hdf5.File) ([]string, error) {
	root := f.Root()
	visited := map[uint64]bool{root.Addr(): true}

	stack := []walkEntry{{group: root, path: ""}}
	var datasets []string

	for len(stack) > 0 {
		entry := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		members, err := entry.group.Members()
		if err != nil {
			return nil, fmt.Errorf("listing members of %q: %w", entry.group.Path(), err)
		}

		// Push child groups in reverse so they pop in native link order.
		var children []walkEntry
		for _, name := range members {
			childPath := entry.path + "/" + name

			addr, isDataset, err := entry.group.Resolve(name)
			if err != nil {
				return nil, fmt.Errorf("resolving %q: %w", childPath, err)
			}

			if isDataset {
				datasets = append(datasets, childPath)
				continue
			}

			if visited[addr] {
				continue
			}
			visited[addr] = true

			child, err := entry.group.OpenGroup(name)
			if err != nil {
				// Named datatypes resolve as non-datasets but are not
				// groups; they are not part of the dataset namespace.
				if errors.Is(err, hdf5.ErrNotGroup) {
					continue
				}
				return nil, fmt.Errorf("opening group %q: %w", childPath, err)
			}
			children = append(children, walkEntry{group: child, path: childPath})
		}

		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}

	return datasets, nil
}
