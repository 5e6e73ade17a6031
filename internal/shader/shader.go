package shader

import (
	"io/fs"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"
)

// spirvMagic is the first word of every SPIR-V module.
const spirvMagic uint32 = 0x07230203

var ErrInvalidBytecode = errors.New("invalid SPIR-V bytecode")

// Bytecode is a compiled vertex/fragment pair ready for shader module creation.
type Bytecode struct {
	Vertex   []uint32
	Fragment []uint32
}

// Load reads both shader stages out of fsys concurrently. Any read or
// validation failure is returned; callers treat it as fatal.
func Load(fsys fs.FS, vertexPath, fragmentPath string) (Bytecode, error) {
	var code Bytecode
	var group errgroup.Group

	group.Go(func() error {
		var err error
		code.Vertex, err = loadFile(fsys, vertexPath)
		return err
	})
	group.Go(func() error {
		var err error
		code.Fragment, err = loadFile(fsys, fragmentPath)
		return err
	})

	if err := group.Wait(); err != nil {
		return Bytecode{}, err
	}

	return code, nil
}

func loadFile(fsys fs.FS, path string) ([]uint32, error) {
	b, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, errors.Wrapf(err, "read shader %s", path)
	}

	code, err := bytesToBytecode(b)
	if err != nil {
		return nil, errors.Wrapf(err, "shader %s", path)
	}

	return code, nil
}

func bytesToBytecode(b []byte) ([]uint32, error) {
	if len(b) == 0 {
		return nil, errors.Wrap(ErrInvalidBytecode, "empty file")
	}
	if len(b)%4 != 0 {
		return nil, errors.Wrapf(ErrInvalidBytecode, "length %d is not a multiple of 4", len(b))
	}

	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteIndex := i * 4
		byteCode[i] |= uint32(b[byteIndex])
		byteCode[i] |= uint32(b[byteIndex+1]) << 8
		byteCode[i] |= uint32(b[byteIndex+2]) << 16
		byteCode[i] |= uint32(b[byteIndex+3]) << 24
	}

	if byteCode[0] != spirvMagic {
		return nil, errors.Wrapf(ErrInvalidBytecode, "bad magic number %#08x", byteCode[0])
	}

	return byteCode, nil
}
