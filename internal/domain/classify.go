package domain

import "strings"

// Classify resolves the authoritative category for an item.
//
// Precedence: a valid declared category always wins; otherwise the storage
// path is scanned for a category folder segment, in Categories order; when
// neither applies the fallback (the bucket under consideration) is used.
// Classify is pure and total: it always returns a valid category.
func Classify(declared Category, pathHint string, fallback Category) Category {
	if declared.Valid() {
		return declared
	}
	for _, cat := range Categories {
		if strings.Contains(pathHint, folderSegment(cat)) {
			return cat
		}
	}
	return fallback
}

// folderSegment is the path fragment that marks an object as belonging to a
// category: the category name bounded by slashes, e.g. "/family/".
func folderSegment(cat Category) string {
	return "/" + string(cat) + "/"
}
