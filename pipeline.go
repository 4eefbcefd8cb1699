package hypostasis

import (
	"path/filepath"
	"strings"

	"github.com/NiceneNerd/hypostasis/byml"
	"github.com/NiceneNerd/hypostasis/yaz0"
)

// Transformed is the outcome of running the remapper over one file's bytes.
type Transformed struct {
	Data       []byte
	Table      RemapTable
	Compressed bool
}

// Transform decompresses, parses, remaps, serializes and recompresses data.
// Input without the Yaz0 magic is treated as an uncompressed document and is
// written back uncompressed. Errors are *StageError values.
func (r *Remapper) Transform(data []byte) (*Transformed, error) {
	out := &Transformed{Compressed: yaz0.IsCompressed(data)}
	raw := data
	if out.Compressed {
		var err error
		if raw, err = yaz0.Decompress(data); err != nil {
			return nil, &StageError{StageDecompress, err}
		}
	}

	doc, err := byml.Parse(raw)
	if err != nil {
		return nil, &StageError{StageParse, err}
	}
	if out.Table, err = r.Remap(doc); err != nil {
		return nil, &StageError{StageRemap, err}
	}
	if len(out.Table) == 0 {
		out.Data = data
		return out, nil
	}

	raw, err = doc.Serialize()
	if err != nil {
		return nil, &StageError{StageSerialize, err}
	}
	if out.Compressed {
		out.Data = yaz0.Compress(raw)
	} else {
		out.Data = raw
	}
	return out, nil
}

// compressedExts lists extensions whose files are always Yaz0 compressed.
var compressedExts = map[string]bool{".smubin": true, ".sbyml": true}

// TransformFile is Transform for data read from path. Data from a file whose
// extension marks it as compressed must carry the Yaz0 signature; raw
// documents are only accepted under other names, such as .mubin.
func (r *Remapper) TransformFile(path string, data []byte) (*Transformed, error) {
	if compressedExts[strings.ToLower(filepath.Ext(path))] && !yaz0.IsCompressed(data) {
		_, err := yaz0.DecompressedSize(data)
		return nil, &StageError{StageDecompress, err}
	}
	return r.Transform(data)
}

// TransformBytes runs a default Remapper over one file's bytes.
func TransformBytes(data []byte, refs *ReferenceSet) ([]byte, RemapTable, error) {
	r := &Remapper{Refs: refs}
	out, err := r.Transform(data)
	if err != nil {
		return nil, nil, err
	}
	return out.Data, out.Table, nil
}
