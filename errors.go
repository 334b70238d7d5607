package epubnav

import "errors"

// Sentinel errors returned by the epubnav package.
var (
	// ErrInvalidEPub indicates the file is not a valid ePub
	// (e.g., missing container.xml and no .opf file found).
	ErrInvalidEPub = errors.New("epubnav: invalid ePub file")

	// ErrFileNotFound indicates the requested file does not exist
	// in the ePub archive.
	ErrFileNotFound = errors.New("epubnav: file not found in archive")

	// ErrHrefNotFound indicates no manifest item matches an href.
	ErrHrefNotFound = errors.New("epubnav: href not found in manifest")

	// ErrNotInSpine indicates a manifest item is not referenced by the spine.
	ErrNotInSpine = errors.New("epubnav: manifest item not in spine")

	// ErrTOCNotFound indicates the requested TOC point does not exist,
	// or that its content does not resolve to a spine item.
	ErrTOCNotFound = errors.New("epubnav: TOC entry not found")

	// ErrNoAdjacentSection is the boundary signal: the requested offset
	// moves outside the spine. It is not a failure of the container.
	ErrNoAdjacentSection = errors.New("epubnav: no adjacent section")

	// ErrCorruptSpine indicates a spine entry references a manifest id
	// that does not exist.
	ErrCorruptSpine = errors.New("epubnav: spine references missing manifest item")

	// ErrLoadRejected indicates the load function refused the target section.
	ErrLoadRejected = errors.New("epubnav: section load rejected")

	// ErrNoOwningEntry indicates the section was loaded but no TOC point
	// precedes it.
	ErrNoOwningEntry = errors.New("epubnav: no owning TOC entry")
)
