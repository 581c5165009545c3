package hdf5

import (
	"fmt"
	"strings"
)

// ParseAttrPath splits an attribute path of the form
// "/group/object@name" into the object path and the attribute name.
// The root object is addressed as "/@name". An error is returned when
// the '@' separator or the attribute name is missing.
func ParseAttrPath(path string) (objectPath, attrName string, err error) {
	if path == "" {
		return "", "", fmt.Errorf("empty attribute path")
	}

	atIdx := strings.LastIndex(path, "@")
	if atIdx == -1 {
		return "", "", fmt.Errorf("attribute path must contain '@' separator: %s", path)
	}

	objectPath = path[:atIdx]
	attrName = path[atIdx+1:]

	if attrName == "" {
		return "", "", fmt.Errorf("attribute name cannot be empty: %s", path)
	}

	// "/@attr" addresses the root group.
	if objectPath == "" {
		objectPath = "/"
	}

	if !strings.HasPrefix(objectPath, "/") {
		objectPath = "/" + objectPath
	}

	return objectPath, attrName, nil
}

// JoinAttrPath is the inverse of ParseAttrPath.
func JoinAttrPath(objectPath, attrName string) string {
	if objectPath == "/" {
		return "/@" + attrName
	}
	return objectPath + "@" + attrName
}

// SplitPath breaks a path into its components, dropping empty ones.
// The root path "/" yields an empty slice.
func SplitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return []string{}
	}
	return strings.Split(path, "/")
}

// CleanPath normalizes a path so it is absolute and carries no
// trailing slash.
func CleanPath(path string) string {
	if path == "" || path == "/" {
		return "/"
	}

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	path = strings.TrimSuffix(path, "/")

	return path
}
