// Package readable provides typed, read-only, random-access views over
// HDF5 containers.
//
// A Catalog is built from a locator (local path, scheme-addressed remote
// object, or an in-memory image) by walking the container's namespace and
// resolving every dataset to one of a closed set of canonical element
// types: fixed-width integers, float32/float64, strings, booleans (the
// 1-byte FALSE/TRUE enum encoding), and complex numbers (the two-member
// real/imaginary compound encoding). Datasets outside that set fail the
// build, or are excluded when the catalog is opened with
// WithPermissiveBuild.
//
// Reads are rectangular region selections returning freshly allocated,
// row-major flat buffers. ReadAt offers clamped half-open bounds in the
// style of array slicing; Read takes exact start/count selections and
// rejects anything out of range.
//
// All container access is serialized both per catalog and behind one
// process-wide library lock, so catalogs are safe for concurrent use.
package readable
