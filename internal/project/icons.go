package project

import (
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

// IconResource is the manifest reference for generated launcher icons.
const IconResource = "@mipmap/ic_launcher"

type iconVariant struct {
	path string
	size int
}

var launcherIcons = []iconVariant{
	{path: "mipmap-hdpi/ic_launcher.png", size: 72},
	{path: "mipmap-xhdpi/ic_launcher.png", size: 96},
	{path: "mipmap-xxhdpi/ic_launcher.png", size: 144},
	{path: "mipmap-xxxhdpi/ic_launcher.png", size: 192},
}

// RenderIcons scales icon into every launcher density under resDir and
// returns the written paths.
func RenderIcons(icon, resDir string) ([]string, error) {
	f, err := os.Open(icon)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}

	paths := make([]string, len(launcherIcons))
	var resizes errgroup.Group
	for i, v := range launcherIcons {
		path := filepath.Join(resDir, filepath.FromSlash(v.path))
		paths[i] = path
		resizes.Go(func() (err error) {
			scaled := image.NewNRGBA(image.Rectangle{Max: image.Point{X: v.size, Y: v.size}})
			draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)
			if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
				return err
			}
			out, err := os.Create(path)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := out.Close(); err == nil {
					err = cerr
				}
			}()
			return png.Encode(out, scaled)
		})
	}
	if err := resizes.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}
