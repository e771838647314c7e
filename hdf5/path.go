package hdf5

import (
	"fmt"
	"strings"
)

// CleanPath returns p as an absolute path without a trailing slash. Empty
// components and "." are dropped.
func CleanPath(p string) string {
	parts := splitPath(p)
	if len(parts) == 0 {
		return "/"
	}
	return "/" + strings.Join(parts, "/")
}

func splitPath(p string) []string {
	var parts []string
	for _, s := range strings.Split(p, "/") {
		if s != "" && s != "." {
			parts = append(parts, s)
		}
	}
	return parts
}

// JoinAttrPath names attribute attr of the object at obj, as in
// "/DataSetInfo/Image@X".
func JoinAttrPath(obj, attr string) string {
	if obj == "/" {
		return "/@" + attr
	}
	return obj + "@" + attr
}

// ParseAttrPath splits an attribute path made by JoinAttrPath. The object
// part is cleaned; a bare "@name" refers to the root group.
func ParseAttrPath(p string) (obj, attr string, err error) {
	i := strings.LastIndexByte(p, '@')
	if i < 0 {
		return "", "", fmt.Errorf("attribute path %q has no '@'", p)
	}
	if attr = p[i+1:]; attr == "" {
		return "", "", fmt.Errorf("attribute path %q has no attribute name", p)
	}
	return CleanPath(p[:i]), attr, nil
}
