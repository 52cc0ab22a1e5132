package rules

import "strings"

// FileOp is an operation on a stored object.
type FileOp int

const (
	FileRead FileOp = iota
	FileWrite
	FileDelete
)

const (
	MiB = 1 << 20

	maxPropertyImage  = 5 * MiB
	maxUserDoc        = 5 * MiB
	maxProfilePicture = 2 * MiB
)

// File describes an object path and, for writes, the upload's size and
// content type.
type File struct {
	Path        string
	Size        int64
	ContentType string
}

// SplitPath breaks an object path into its segments. It returns nil for
// paths with empty, "." or ".." segments.
func SplitPath(path string) []string {
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	for _, p := range parts {
		if p == "" || p == "." || p == ".." {
			return nil
		}
	}
	return parts
}

// CheckFile evaluates the storage rules. Unknown path layouts are denied.
func CheckFile(auth *Auth, op FileOp, f File) error {
	parts := SplitPath(f.Path)
	if parts == nil {
		return ErrPermissionDenied
	}

	switch {
	// propertyImages/{landlordId}/{propertyId}/{file}
	case parts[0] == "propertyImages" && len(parts) == 4:
		if op == FileRead {
			return nil
		}
		if !auth.is(parts[1]) {
			return ErrPermissionDenied
		}
		return allow(op == FileDelete || upload(f, maxPropertyImage, isImage))

	// userDocs/{userId}/{nationalId|studentId}/{file}
	case parts[0] == "userDocs" && len(parts) == 4:
		if !auth.is(parts[1]) || (parts[2] != "nationalId" && parts[2] != "studentId") {
			return ErrPermissionDenied
		}
		return allow(op != FileWrite || upload(f, maxUserDoc, isImageOrPDF))

	// profilePictures/{userId}/{file}
	case parts[0] == "profilePictures" && len(parts) == 3:
		if op == FileRead {
			return nil
		}
		if !auth.is(parts[1]) {
			return ErrPermissionDenied
		}
		return allow(op == FileDelete || upload(f, maxProfilePicture, isImage))
	}
	return ErrPermissionDenied
}

func upload(f File, limit int64, typeOK func(string) bool) bool {
	return f.Size >= 0 && f.Size <= limit && typeOK(f.ContentType)
}

func isImage(ct string) bool {
	return strings.HasPrefix(ct, "image/")
}

func isImageOrPDF(ct string) bool {
	return isImage(ct) || ct == "application/pdf"
}
