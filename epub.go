package epubnav

import (
	"archive/zip"
	"fmt"
	"io"
	"strings"

	"go.uber.org/multierr"
)

// expectedMimetype is the required content of the "mimetype" file in a valid ePub.
const expectedMimetype = "application/epub+zip"

// Book is an opened ePub archive together with its Container.
// Use Open or NewReader to create a Book instance.
//
// A Book is not safe for concurrent use by multiple goroutines; its
// Container is.
type Book struct {
	zip       *zip.Reader
	index     zipIndex
	closer    io.Closer // non-nil only when created via Open()
	opfPath   string
	version   string
	container *Container
	warnings  []string
}

// Open opens an ePub file at the given path.
// The caller must call Close when done reading from the book.
func Open(path string) (*Book, error) {
	zrc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("epubnav: open %s: %w", path, err)
	}

	b, err := initBook(&zrc.Reader, zrc)
	if err != nil {
		return nil, multierr.Append(err, zrc.Close())
	}
	return b, nil
}

// NewReader creates a Book from an io.ReaderAt with the given size.
// The caller is responsible for the lifetime of r.
func NewReader(r io.ReaderAt, size int64) (*Book, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("epubnav: open zip: %w", err)
	}
	return initBook(zr, nil)
}

// initBook locates and parses the package document and the table of
// contents, then builds the Container.
func initBook(zr *zip.Reader, closer io.Closer) (*Book, error) {
	b := &Book{
		zip:    zr,
		index:  newZipIndex(zr),
		closer: closer,
	}
	b.validateMimetype()

	opfPath, err := locatePackage(zr, b.index)
	if err != nil {
		return nil, err
	}
	b.opfPath = opfPath

	data, err := b.ReadFile(opfPath)
	if err != nil {
		return nil, fmt.Errorf("epubnav: read OPF file %s: %w", opfPath, err)
	}
	pkg, err := parseOPF(data, opfPath)
	if err != nil {
		return nil, err
	}
	b.version = pkg.version

	toc := b.parseTOC(pkg)
	assignTOCIDs(toc)

	b.container = NewContainer(pkg.manifest, pkg.spine, toc)
	b.warnings = append(b.warnings, b.container.Warnings()...)
	return b, nil
}

// parseTOC prefers the ePub 3 navigation document for ePub 3 packages and
// falls back to the NCX. A missing or broken TOC is not fatal.
func (b *Book) parseTOC(pkg *packageDocument) []TOCPoint {
	if strings.HasPrefix(pkg.version, "3") {
		if item, ok := pkg.navItem(); ok {
			if data, err := b.ReadFile(item.Href); err != nil {
				b.warnings = append(b.warnings, fmt.Sprintf("failed to read nav document: %v", err))
			} else if toc, err := parseNavDocument(data, item.Href); err != nil {
				b.warnings = append(b.warnings, fmt.Sprintf("failed to parse nav document: %v", err))
			} else if len(toc) > 0 {
				return toc
			}
		}
	}

	item, ok := pkg.ncxItem()
	if !ok {
		return nil
	}
	data, err := b.ReadFile(item.Href)
	if err != nil {
		b.warnings = append(b.warnings, fmt.Sprintf("failed to read NCX file: %v", err))
		return nil
	}
	toc, err := parseNCX(data, item.Href)
	if err != nil {
		b.warnings = append(b.warnings, fmt.Sprintf("failed to parse NCX file: %v", err))
		return nil
	}
	return toc
}

// validateMimetype checks that the first ZIP entry is named "mimetype" and
// contains "application/epub+zip". Deviations are recorded as warnings.
func (b *Book) validateMimetype() {
	if len(b.zip.File) == 0 || b.zip.File[0].Name != "mimetype" {
		b.warnings = append(b.warnings, "first ZIP entry is not \"mimetype\"")
		return
	}
	data, err := readZipFile(b.zip.File[0], maxDecompressSize)
	if err != nil {
		b.warnings = append(b.warnings, fmt.Sprintf("cannot read mimetype entry: %v", err))
		return
	}
	if string(data) != expectedMimetype {
		b.warnings = append(b.warnings, fmt.Sprintf("unexpected mimetype: %q", string(data)))
	}
}

// Close releases resources held by the Book. Close is idempotent.
func (b *Book) Close() error {
	if b.closer != nil {
		err := b.closer.Close()
		b.closer = nil
		return err
	}
	return nil
}

// ReadFile reads a file from the archive by its container-root path.
// Fragments are ignored; the lookup falls back to case-insensitive matching.
func (b *Book) ReadFile(name string) ([]byte, error) {
	f := b.index.find(StripAnchor(name))
	if f == nil {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
	}
	return readZipFile(f, maxDecompressSize)
}

// Container returns the manifest/spine/TOC model of the book.
func (b *Book) Container() *Container {
	return b.container
}

// Version returns the package version attribute ("2.0" when absent).
func (b *Book) Version() string {
	return b.version
}

// Warnings returns non-fatal problems found while opening the book.
func (b *Book) Warnings() []string {
	return append([]string(nil), b.warnings...)
}
