package resources

import (
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"path"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

type ResourceFlag uint8

// WriteCounter counts the number of bytes written to it, and every 10 seconds,
// it prints a message reporting the number of bytes written so far.
type WriteCounter struct {
	Total    uint64
	Last     time.Time
	Reported bool
	Path     string
	Size     uint64
}

func (wc *WriteCounter) Write(p []byte) (int, error) {
	n := len(p)
	wc.Total += uint64(n)
	if time.Now().Sub(wc.Last).Seconds() > 10 {
		wc.Reported = true
		wc.Last = time.Now()
		log.Printf("Downloading %s... %s / %s completed.",
			wc.Path, humanize.Bytes(wc.Total), humanize.Bytes(wc.Size))
	}
	return n, nil
}

// Enumeration of resource flags that indicate what the resolver should do
// with the resource.
const (
	RESOURCE_REQUIRED ResourceFlag = 1 << iota
	RESOURCE_OPTIONAL
)

const (
	MODEL_FILE  = "model.json"
	CONFIG_FILE = "tokenizer_config.json"
)

// AuthToken is sent as a bearer token on remote fetches when set.
var AuthToken string

type ResourceEntryDefs map[string]ResourceFlag

// ResourceEntry is a resolved file, mapped into memory. Data is only valid
// until Close.
type ResourceEntry struct {
	file    *os.File
	release func() error
	Data    *[]byte
}

// Close unmaps the data and closes the underlying file.
func (entry *ResourceEntry) Close() error {
	var err error
	if entry.release != nil {
		err = entry.release()
		entry.release = nil
	}
	if entry.file != nil {
		if closeErr := entry.file.Close(); err == nil {
			err = closeErr
		}
		entry.file = nil
	}
	return err
}

type Resources map[string]*ResourceEntry

func (rsrcs *Resources) Cleanup() {
	for _, rsrc := range *rsrcs {
		rsrc.Close()
	}
}

// GetResourceEntries
// Returns the files that make up a published model, and whether each is
// required.
func GetResourceEntries() ResourceEntryDefs {
	return ResourceEntryDefs{
		MODEL_FILE:  RESOURCE_REQUIRED,
		CONFIG_FILE: RESOURCE_OPTIONAL,
	}
}

func isValidUrl(toTest string) bool {
	_, err := url.ParseRequestURI(toTest)
	if err != nil {
		return false
	}

	u, err := url.Parse(toTest)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}

	return true
}

// Fetch
// Given a base URI and a resource name, determines if the resource is local
// or remote. Local resources are opened directly; remote ones are fetched
// over HTTP.
func Fetch(uri string, rsrc string) (io.ReadCloser, error) {
	if isValidUrl(uri) {
		return FetchHTTP(uri, rsrc, AuthToken)
	}
	handle, err := os.Open(path.Join(uri, rsrc))
	if err != nil {
		return nil, errors.Wrapf(err, "error opening %s/%s", uri, rsrc)
	}
	return handle, nil
}

// Size
// Given a base URI and a resource name, determine the size of the resource.
func Size(uri string, rsrc string) (uint, error) {
	if isValidUrl(uri) {
		return SizeHTTP(uri, rsrc, AuthToken)
	}
	fsz, err := os.Stat(path.Join(uri, rsrc))
	if err != nil {
		return 0, err
	}
	return uint(fsz.Size()), nil
}

// AddEntry
// Add a resource to the Resources map, mapping it into memory.
func (rsrcs *Resources) AddEntry(name string, file *os.File) error {
	fileMmap, release, mmapErr := readMmap(file)
	if mmapErr != nil {
		return errors.Wrapf(mmapErr, "error trying to mmap `%s`", name)
	}
	(*rsrcs)[name] = &ResourceEntry{file, release, fileMmap}
	return nil
}

// ReadFile opens path and maps it into memory.
func ReadFile(filePath string) (*ResourceEntry, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open `%s`", filePath)
	}
	fileMmap, release, mmapErr := readMmap(file)
	if mmapErr != nil {
		file.Close()
		return nil, errors.Wrapf(mmapErr, "error trying to mmap `%s`",
			filePath)
	}
	return &ResourceEntry{file, release, fileMmap}, nil
}

func isLocalDir(uri string) bool {
	stat, err := os.Stat(uri)
	return err == nil && stat.IsDir()
}

// ResolveResources resolves all resources at a given uri. Resources in a
// local directory are mapped in place; remote resources are downloaded into
// dir first, unless a file of the same size is already there.
func ResolveResources(uri string, dir string,
	rsrcLvl ResourceFlag) (*Resources, error) {
	foundResources := make(Resources, 0)
	local := isLocalDir(uri)

	for file, flag := range GetResourceEntries() {
		if flag > rsrcLvl {
			continue
		}
		log.Printf("Resolving %s/%s... ", uri, file)
		rsrcSize, rsrcSizeErr := Size(uri, file)
		if rsrcSizeErr != nil {
			if flag&RESOURCE_REQUIRED != 0 {
				foundResources.Cleanup()
				return nil, errors.Wrapf(rsrcSizeErr,
					"cannot retrieve required `%s` from `%s`", file, uri)
			}
			log.Printf("Resolved %s/%s... not there, not required.",
				uri, file)
			continue
		}

		targetPath := path.Join(dir, file)
		if local {
			targetPath = path.Join(uri, file)
		} else if targetStat, statErr := os.Stat(targetPath); statErr == nil &&
			uint(targetStat.Size()) == rsrcSize {
			log.Printf("Skipping %s/%s... already exists, "+
				"and of the correct size.", uri, file)
		} else if downloadErr := download(uri, file, targetPath,
			rsrcSize); downloadErr != nil {
			foundResources.Cleanup()
			return nil, downloadErr
		}

		rsrcFile, openErr := os.Open(targetPath)
		if openErr != nil {
			foundResources.Cleanup()
			return nil, errors.Wrapf(openErr, "error opening `%s`",
				targetPath)
		}
		if mmapErr := foundResources.AddEntry(file, rsrcFile); mmapErr != nil {
			rsrcFile.Close()
			foundResources.Cleanup()
			return nil, mmapErr
		}
	}
	return &foundResources, nil
}

func download(uri string, file string, targetPath string, size uint) error {
	rsrcReader, rsrcErr := Fetch(uri, file)
	if rsrcErr != nil {
		return errors.Wrapf(rsrcErr, "cannot retrieve `%s` from `%s`",
			file, uri)
	}
	defer rsrcReader.Close()
	outFile, outErr := os.OpenFile(targetPath,
		os.O_TRUNC|os.O_RDWR|os.O_CREATE, 0644)
	if outErr != nil {
		return errors.Wrapf(outErr, "error opening '%s' for write",
			targetPath)
	}
	defer outFile.Close()
	counter := &WriteCounter{
		Last: time.Now(),
		Path: fmt.Sprintf("%s/%s", uri, file),
		Size: uint64(size),
	}
	bytesDownloaded, ioErr := io.Copy(outFile,
		io.TeeReader(rsrcReader, counter))
	if ioErr != nil {
		return errors.Wrapf(ioErr, "error downloading '%s'", file)
	}
	log.Printf("Downloaded %s/%s... %s completed.", uri, file,
		humanize.Bytes(uint64(bytesDownloaded)))
	return nil
}

// ResolveModel resolves a model from a local JSON file, a local directory,
// or a remote base URL. Remote files are cached in dir.
func ResolveModel(uri string, dir string) (*Resources, error) {
	if stat, err := os.Stat(uri); err == nil && !stat.IsDir() {
		entry, readErr := ReadFile(uri)
		if readErr != nil {
			return nil, readErr
		}
		return &Resources{MODEL_FILE: entry}, nil
	}
	if !isValidUrl(uri) && !isLocalDir(uri) {
		return nil, errors.New(fmt.Sprintf(
			"`%s` is neither a model file, a directory, nor a URL", uri))
	}
	return ResolveResources(uri, dir, RESOURCE_OPTIONAL)
}
