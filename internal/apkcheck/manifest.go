package apkcheck

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/avast/apkparser"
)

// DecodeManifest writes the binary AndroidManifest.xml of the package at p
// to w as indented XML.
func DecodeManifest(p string, w io.Writer) error {
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")

	zipErr, resErr, manErr := apkparser.ParseApk(p, enc)
	if zipErr != nil {
		return fmt.Errorf("open package: %w", zipErr)
	}
	if manErr != nil {
		return fmt.Errorf("decode AndroidManifest.xml: %w", manErr)
	}
	if resErr != nil {
		// References stay numeric without a resource table; the dump is still useful.
		_, _ = fmt.Fprintf(w, "\n<!-- resources not decoded: %v -->\n", resErr)
	}
	return nil
}
