//go:build linux || darwin

package translate

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/meshql/mongodbc/pkg/errors"
)

// bsonBuffer is the wire struct exchanged with the shared library. The
// library owns the memory of the buffer it returns; the response bytes are
// copied into Go memory before the call returns.
type bsonBuffer struct {
	data     *byte
	length   uintptr
	capacity uintptr
}

// EnvLibraryPath overrides the search for the shared library.
const EnvLibraryPath = "MONGOSQL_TRANSLATE_LIBRARY"

var (
	loadOnce sync.Once
	loaded   *Library
	loadErr  error
)

// Load resolves, opens, and binds the translation library exactly once per
// process. Subsequent calls return the same instance or the same failure.
func Load() (*Library, error) {
	loadOnce.Do(func() {
		loaded, loadErr = load(libraryPath())
	})
	return loaded, loadErr
}

func libraryName() string {
	if runtime.GOOS == "darwin" {
		return "libmongosqltranslate.dylib"
	}
	return "libmongosqltranslate.so"
}

func libraryPath() string {
	if p := os.Getenv(EnvLibraryPath); p != "" {
		return p
	}
	// Next to the driver binary, then the system loader path.
	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), libraryName())
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return libraryName()
}

func load(path string) (*Library, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, errors.General(fmt.Errorf("cannot load translation library %s: %w", path, err))
	}

	var runCommand func(bsonBuffer) bsonBuffer
	purego.RegisterLibFunc(&runCommand, handle, "runCommand")

	run := func(command []byte) ([]byte, error) {
		if len(command) == 0 {
			return nil, fmt.Errorf("empty command document")
		}
		in := bsonBuffer{
			data:     &command[0],
			length:   uintptr(len(command)),
			capacity: uintptr(cap(command)),
		}
		out := runCommand(in)
		if out.data == nil || out.length == 0 {
			return nil, fmt.Errorf("translation library returned an empty response")
		}
		// Copy before the library can reclaim the buffer.
		resp := make([]byte, out.length)
		copy(resp, unsafe.Slice(out.data, out.length))
		return resp, nil
	}

	return &Library{run: run}, nil
}
