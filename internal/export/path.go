package export

import (
	"path"
	"time"
)

// BaseName is the file name, without extension, of every exported dataset.
const BaseName = "clickstream_data"

// ObjectKey returns [prefix/]YYYY/MM/DD/HH/mm/clickstream_data.<ext> for
// the export instant now.
func ObjectKey(prefix string, now time.Time, ext string) string {
	return path.Join(prefix, now.Format("2006/01/02/15/04"), BaseName+"."+ext)
}

// SidecarKey returns the metadata object key that accompanies dataKey.
func SidecarKey(dataKey string) string {
	ext := path.Ext(dataKey)
	return dataKey[:len(dataKey)-len(ext)] + ".meta.json"
}
