package viz

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/qevolve/internal/metrics"
)

var palette = []color.Color{
	color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
}

// WritePNG plots each series against time and saves the chart to path. The
// image format follows the file extension.
func WritePNG(path, title string, samples []metrics.Sample, series ...string) error {
	if len(series) == 0 {
		series = []string{"norm2"}
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "t"
	p.Add(plotter.NewGrid())

	for i, name := range series {
		ys, ts, err := Extract(samples, name)
		if err != nil {
			return err
		}
		pts := make(plotter.XYs, len(ys))
		for k := range ys {
			pts[k].X = ts[k]
			pts[k].Y = ys[k]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		line.Color = palette[i%len(palette)]
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(name, line)
	}
	p.Legend.Top = true

	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}
