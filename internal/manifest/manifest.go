// Package manifest renders AndroidManifest.xml for a NativeActivity package.
package manifest

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Data is the input to the manifest template.
type Data struct {
	PackageID   string
	Label       string
	LibName     string
	MinSDK      int
	TargetSDK   int
	VersionCode int
	VersionName string
	Permissions []string
	GLESVersion string
	// Icon is an optional resource reference such as @mipmap/ic_launcher.
	Icon string
}

// DefaultLabel title-cases a target name for display, "game" becomes "Game".
func DefaultLabel(name string) string {
	return cases.Title(language.Und, cases.NoLower).String(name)
}

var manifestTmpl = template.Must(template.New("manifest").Funcs(template.FuncMap{
	"attr": escapeAttr,
}).Parse(`<?xml version="1.0" encoding="utf-8"?>
<manifest xmlns:android="http://schemas.android.com/apk/res/android"
  package="{{attr .PackageID}}"
  android:versionCode="{{.VersionCode}}"
  android:versionName="{{attr .VersionName}}">
  <uses-sdk android:minSdkVersion="{{.MinSDK}}" android:targetSdkVersion="{{.TargetSDK}}"/>
{{range .Permissions}}  <uses-permission android:name="{{attr .}}"></uses-permission>
{{end}}  <uses-feature android:glEsVersion="{{attr .GLESVersion}}"></uses-feature>
  <application android:label="{{attr .Label}}"{{if .Icon}} android:icon="{{attr .Icon}}"{{end}} android:debuggable="true" android:hasCode="false">
    <activity android:name="android.app.NativeActivity"
      android:label="{{attr .Label}}"
      android:launchMode="singleTask"
      android:exported="true"
      android:screenOrientation="fullUser"
      android:configChanges="orientation|screenSize|keyboard|keyboardHidden">
      <meta-data android:name="android.app.lib_name" android:value="{{attr .LibName}}"/>
      <intent-filter>
        <action android:name="android.intent.action.MAIN"/>
        <category android:name="android.intent.category.LAUNCHER"/>
      </intent-filter>
    </activity>
  </application>
</manifest>
`))

func escapeAttr(s string) (string, error) {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Generate writes the manifest for d to w.
func Generate(w io.Writer, d Data) error {
	if d.PackageID == "" {
		return fmt.Errorf("manifest: package id is empty")
	}
	if d.LibName == "" {
		return fmt.Errorf("manifest: library name is empty")
	}
	if d.Label == "" {
		d.Label = DefaultLabel(d.LibName)
	}
	return manifestTmpl.Execute(w, d)
}

// WriteFile renders the manifest and replaces path with it.
func WriteFile(path string, d Data) error {
	var buf bytes.Buffer
	if err := Generate(&buf, d); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
