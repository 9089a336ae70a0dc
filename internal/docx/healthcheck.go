package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"
)

// Media extensions a generated document may embed. Anything else fails the
// health check even when the content-type manifest declares it.
var allowedMediaExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
	"bmp":  true,
	"svg":  true,
}

type contentTypes struct {
	Defaults []struct {
		Extension   string `xml:"Extension,attr"`
		ContentType string `xml:"ContentType,attr"`
	} `xml:"Default"`
	Overrides []struct {
		PartName    string `xml:"PartName,attr"`
		ContentType string `xml:"ContentType,attr"`
	} `xml:"Override"`
}

type relationships struct {
	Relationships []struct {
		ID         string `xml:"Id,attr"`
		Target     string `xml:"Target,attr"`
		TargetMode string `xml:"TargetMode,attr"`
	} `xml:"Relationship"`
}

// CheckHealth structurally validates a produced DOCX archive: the archive
// must open, a content-type manifest must exist, every embedded media file
// must carry a declared and allow-listed extension, and every internal
// relationship target must resolve to an existing archive entry without
// escaping the archive root. It reports the first defect found.
func CheckHealth(data []byte) error {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("invalid archive: %w", err)
	}

	entries := make(map[string]*zip.File, len(reader.File))
	for _, file := range reader.File {
		entries[file.Name] = file
	}

	manifest, err := readContentTypes(entries)
	if err != nil {
		return err
	}

	declaredExtensions := map[string]bool{}
	for _, def := range manifest.Defaults {
		declaredExtensions[strings.ToLower(def.Extension)] = true
	}
	overridden := map[string]bool{}
	for _, ov := range manifest.Overrides {
		overridden[ov.PartName] = true
	}

	for name := range entries {
		if err := checkMediaEntry(name, declaredExtensions, overridden); err != nil {
			return err
		}
	}

	for name, file := range entries {
		if !strings.HasSuffix(name, ".rels") {
			continue
		}
		if err := checkRelationships(name, file, entries); err != nil {
			return err
		}
	}
	return nil
}

func readContentTypes(entries map[string]*zip.File) (*contentTypes, error) {
	file, ok := entries["[Content_Types].xml"]
	if !ok {
		return nil, fmt.Errorf("missing content-type manifest")
	}
	raw, err := readEntry(file)
	if err != nil {
		return nil, fmt.Errorf("read content-type manifest: %w", err)
	}
	var manifest contentTypes
	if err := xml.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("parse content-type manifest: %w", err)
	}
	return &manifest, nil
}

func checkMediaEntry(name string, declaredExtensions, overridden map[string]bool) error {
	if !strings.Contains(name, "media/") {
		return nil
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	if ext == "" {
		return fmt.Errorf("media entry %s has no extension", name)
	}
	if !allowedMediaExtensions[ext] {
		return fmt.Errorf("media entry %s has disallowed extension %q", name, ext)
	}
	if !declaredExtensions[ext] && !overridden["/"+name] {
		return fmt.Errorf("media entry %s is not declared in the content-type manifest", name)
	}
	return nil
}

func checkRelationships(relsName string, file *zip.File, entries map[string]*zip.File) error {
	raw, err := readEntry(file)
	if err != nil {
		return fmt.Errorf("read %s: %w", relsName, err)
	}
	var rels relationships
	if err := xml.Unmarshal(raw, &rels); err != nil {
		return fmt.Errorf("parse %s: %w", relsName, err)
	}

	// A rels part at dir/_rels/part.rels resolves targets against dir.
	base := path.Dir(path.Dir(relsName))
	if base == "." {
		base = ""
	}

	for _, rel := range rels.Relationships {
		if rel.TargetMode == "External" {
			continue
		}
		target := rel.Target
		if target == "" {
			return fmt.Errorf("%s: relationship %s has an empty target", relsName, rel.ID)
		}
		if strings.Contains(target, "://") || strings.HasPrefix(target, "#") {
			continue
		}

		resolved := target
		if strings.HasPrefix(target, "/") {
			resolved = strings.TrimPrefix(path.Clean(target), "/")
		} else {
			resolved = path.Clean(path.Join(base, target))
		}
		if resolved == ".." || strings.HasPrefix(resolved, "../") {
			return fmt.Errorf("%s: relationship %s target %q escapes the archive root", relsName, rel.ID, rel.Target)
		}
		if _, ok := entries[resolved]; !ok {
			return fmt.Errorf("%s: relationship %s target %q does not resolve to an archive entry", relsName, rel.ID, rel.Target)
		}
	}
	return nil
}

func readEntry(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
