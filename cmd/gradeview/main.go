// Command gradeview is a desktop preview window for the grading pipeline.
//
// It opens a continuously rendering gogpu window, loads the image given with
// -image as a decimated preview, and binds keys to parameter nudges. The
// histogram overlay updates as parameters change. The full-resolution export
// runs in the background so the preview never stalls.
//
// Keys:
//
//	Q/A  exposure        W/Z  contrast
//	T/G  temperature     Y/H  tint
//	U/J  highlights      I/K  shadows
//	O/M  whites          P/N  blacks
//	C/V  saturation
//	0    reset all parameters
//	S/L  save / load preset
//	E    export full-resolution JPEG
//	Space  toggle the ungraded original
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gogpu/gogpu"
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/grade"
	"github.com/gogpu/grade/decode"
	_ "github.com/gogpu/grade/gpu" // register the GPU accelerator
	"github.com/gogpu/grade/viewer"
)

// Nudge sizes per keypress, tuned so ten presses sweep a useful range.
const (
	exposureStep    = 0.1
	contrastStep    = 0.05
	temperatureStep = 100
	tintStep        = 5
	toneStep        = 0.05
	saturationStep  = 0.05
)

func main() {
	imagePath := flag.String("image", "", "DNG/TIFF image to load")
	presetPath := flag.String("preset", "grade.json", "preset file used by S/L")
	exportPath := flag.String("out", "", "export destination (default <image>_graded.jpg)")
	width := flag.Int("width", 1280, "window width")
	height := flag.Int("height", 800, "window height")
	previewWidth := flag.Int("preview-width", 1024, "decimated preview width")
	quality := flag.Int("quality", 90, "JPEG export quality")
	softwareOnly := flag.Bool("sw", false, "disable the GPU accelerator")
	flag.Parse()

	grade.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	var vOpts []viewer.Option
	if *softwareOnly {
		vOpts = append(vOpts, viewer.WithRendererOptions(grade.WithSoftwareOnly()))
	}
	v := viewer.New(vOpts...)

	// Decode up front; hand the frame to the viewer on the first draw tick,
	// after the accelerator has a chance to share the window's GPU device.
	var pending *grade.Image
	if *imagePath != "" {
		im, err := decode.Decode(*imagePath, decode.WithTargetWidth(*previewWidth))
		if err != nil {
			log.Fatalf("load %s: %v", *imagePath, err)
		}
		pending = im
		log.Printf("Loaded %s: %dx%d preview", filepath.Base(*imagePath), im.Width, im.Height)
	} else {
		log.Printf("No -image given; showing placeholder. Formats: tif, tiff, %s",
			strings.Join(decode.RawExtensions(), ", "))
	}

	app := gogpu.NewApp(gogpu.DefaultConfig().
		WithTitle("gradeview").
		WithSize(*width, *height).
		WithContinuousRender(true))

	var frame int
	app.OnDraw(func(dc *gogpu.Context) {
		if frame == 0 {
			log.Printf("Backend: %s", dc.Backend())
			if provider := app.GPUContextProvider(); provider != nil {
				// Non-fatal: the accelerator can run on its own device.
				if err := grade.SetAcceleratorDeviceProvider(provider); err != nil {
					log.Printf("Accelerator device sharing unavailable: %v", err)
				}
			}
			if pending != nil {
				v.SetImage(pending)
				pending = nil
			}
		}
		frame++

		if err := v.Present(dc.AsTextureDrawer()); err != nil {
			log.Printf("present: %v", err)
		}
	})

	// adjust applies one nudge to a copy of the current parameters and hands
	// the clamped snapshot to both evaluators.
	adjust := func(apply func(*grade.Params)) {
		p := v.Params()
		apply(&p)
		v.SetParams(p.Clamp())
	}

	graded := true
	var gradedParams grade.Params

	app.EventSource().OnKeyPress(func(key gpucontext.Key, _ gpucontext.Modifiers) {
		switch key {
		case gpucontext.KeyQ:
			adjust(func(p *grade.Params) { p.Exposure += exposureStep })
		case gpucontext.KeyA:
			adjust(func(p *grade.Params) { p.Exposure -= exposureStep })
		case gpucontext.KeyW:
			adjust(func(p *grade.Params) { p.Contrast += contrastStep })
		case gpucontext.KeyZ:
			adjust(func(p *grade.Params) { p.Contrast -= contrastStep })
		case gpucontext.KeyT:
			adjust(func(p *grade.Params) { p.Temperature += temperatureStep })
		case gpucontext.KeyG:
			adjust(func(p *grade.Params) { p.Temperature -= temperatureStep })
		case gpucontext.KeyY:
			adjust(func(p *grade.Params) { p.Tint += tintStep })
		case gpucontext.KeyH:
			adjust(func(p *grade.Params) { p.Tint -= tintStep })
		case gpucontext.KeyU:
			adjust(func(p *grade.Params) { p.Highlights += toneStep })
		case gpucontext.KeyJ:
			adjust(func(p *grade.Params) { p.Highlights -= toneStep })
		case gpucontext.KeyI:
			adjust(func(p *grade.Params) { p.Shadows += toneStep })
		case gpucontext.KeyK:
			adjust(func(p *grade.Params) { p.Shadows -= toneStep })
		case gpucontext.KeyO:
			adjust(func(p *grade.Params) { p.Whites += toneStep })
		case gpucontext.KeyM:
			adjust(func(p *grade.Params) { p.Whites -= toneStep })
		case gpucontext.KeyP:
			adjust(func(p *grade.Params) { p.Blacks += toneStep })
		case gpucontext.KeyN:
			adjust(func(p *grade.Params) { p.Blacks -= toneStep })
		case gpucontext.KeyC:
			adjust(func(p *grade.Params) { p.Saturation += saturationStep })
		case gpucontext.KeyV:
			adjust(func(p *grade.Params) { p.Saturation -= saturationStep })

		case gpucontext.Key0:
			v.SetParams(grade.DefaultParams())
			log.Printf("Parameters reset")

		case gpucontext.KeySpace:
			// Before/after: park the grade and show the ungraded original.
			if graded {
				gradedParams = v.Params()
				v.SetParams(grade.DefaultParams())
			} else {
				v.SetParams(gradedParams)
			}
			graded = !graded

		case gpucontext.KeyS:
			if err := grade.SaveParams(*presetPath, v.Params()); err != nil {
				log.Printf("save preset: %v", err)
			} else {
				log.Printf("Saved preset %s", *presetPath)
			}

		case gpucontext.KeyL:
			p, err := grade.LoadParams(*presetPath)
			if err != nil {
				log.Printf("load preset: %v", err)
				return
			}
			v.SetParams(p)
			log.Printf("Loaded preset %s", *presetPath)

		case gpucontext.KeyE:
			if *imagePath == "" {
				log.Printf("export: no image loaded")
				return
			}
			dst := *exportPath
			if dst == "" {
				dst = strings.TrimSuffix(*imagePath, filepath.Ext(*imagePath)) + "_graded.jpg"
			}
			go exportImage(*imagePath, dst, v.Params(), *quality)
		}
	})

	app.OnClose(func() {
		_ = v.Close()
		// Drain the GPU queue and destroy session resources while the
		// device is still alive.
		grade.CloseAccelerator()
	})

	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}

// exportImage re-decodes the source at full resolution and encodes the
// graded result. It runs on its own goroutine; params is a value snapshot.
func exportImage(srcPath, dstPath string, p grade.Params, quality int) {
	log.Printf("Exporting %s...", dstPath)
	im, err := decode.Decode(srcPath)
	if err != nil {
		log.Printf("export: %v", err)
		return
	}
	if err := grade.Export(im, p, dstPath, grade.WithJPEGQuality(quality)); err != nil {
		log.Printf("export: %v", err)
		return
	}
	log.Printf("Exported %s (%dx%d)", dstPath, im.Width, im.Height)
}
