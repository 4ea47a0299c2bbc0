package export

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/danek0100/External-Observer/internal/model"
)

// MetadataFile is the archive entry holding every exported document as JSON.
const MetadataFile = "metadata.json"

// NotesZip writes one <title>.md per document with its content, plus
// metadata.json with the full records. Documents without a usable title are
// named by id; repeated names get a numeric suffix.
func NotesZip(w io.Writer, docs []model.Document) error {
	zw := zip.NewWriter(w)
	used := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		name := entryName(d, used)
		fw, err := zw.Create(name)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(fw, d.Content); err != nil {
			return err
		}
	}

	fw, err := zw.Create(MetadataFile)
	if err != nil {
		return err
	}
	if docs == nil {
		docs = []model.Document{}
	}
	enc := json.NewEncoder(fw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(docs); err != nil {
		return err
	}
	return zw.Close()
}

var unsafeName = strings.NewReplacer("/", "_", "\\", "_", ":", "_", "\x00", "")

func entryName(d model.Document, used map[string]struct{}) string {
	base := strings.TrimSpace(unsafeName.Replace(d.Title))
	if base == "" || base == "." || base == ".." || base == MetadataFile {
		base = d.ID.String()
	}
	name := base + ".md"
	for n := 2; ; n++ {
		if _, taken := used[name]; !taken {
			break
		}
		name = fmt.Sprintf("%s (%d).md", base, n)
	}
	used[name] = struct{}{}
	return name
}
