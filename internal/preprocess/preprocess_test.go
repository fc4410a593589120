package preprocess

import (
	"image"
	"image/color"
	"testing"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestToTensor_ShapeAndRange(t *testing.T) {
	img := solid(300, 180, color.RGBA{R: 255, G: 0, B: 51, A: 255})
	tensor, err := ToTensor(img, InputSize)
	if err != nil {
		t.Fatalf("ToTensor() error = %v", err)
	}
	if !tensor.Valid() {
		t.Fatalf("tensor is not valid: %dx%dx%d with %d values", tensor.Width, tensor.Height, tensor.Channels, len(tensor.Data))
	}
	if got := tensor.Shape(); got[0] != 1 || got[1] != 224 || got[2] != 224 || got[3] != 3 {
		t.Errorf("Shape() = %v", got)
	}
	for i, v := range tensor.Data {
		if v < 0 || v > 1 {
			t.Fatalf("value %d out of range: %v", i, v)
		}
	}
	want := []float32{1, 0, 0.2}
	for i, w := range want {
		if d := tensor.Data[i] - w; d > 1.0/255 || d < -1.0/255 {
			t.Errorf("channel %d = %v, want %v", i, tensor.Data[i], w)
		}
	}
}

func TestToTensor_Empty(t *testing.T) {
	if _, err := ToTensor(image.NewRGBA(image.Rect(0, 0, 0, 0)), InputSize); err != ErrEmptyImage {
		t.Errorf("error = %v, want ErrEmptyImage", err)
	}
}

func TestAdjustment_Scale(t *testing.T) {
	img := solid(4, 4, color.RGBA{R: 100, G: 200, B: 10, A: 255})
	out := Adjustment{Mode: ModeScale, Alpha: 1.5, Beta: 10}.Apply(img)
	got := out.RGBAAt(0, 0)
	want := color.RGBA{R: 160, G: 255, B: 25, A: 255}
	if got != want {
		t.Errorf("pixel = %v, want %v", got, want)
	}
}

func TestAdjustment_NoneIsIdentity(t *testing.T) {
	img := solid(2, 2, color.RGBA{R: 1, G: 2, B: 3, A: 255})
	out := Adjustment{Mode: ModeNone, Alpha: 9, Beta: 9}.Apply(img)
	if out.RGBAAt(1, 1) != img.RGBAAt(1, 1) {
		t.Error("none mode changed pixels")
	}
}

func TestAdjustment_SubImage(t *testing.T) {
	base := solid(300, 300, color.RGBA{R: 250, G: 250, B: 250, A: 255})
	for y := 0; y < 150; y++ {
		for x := 0; x < 150; x++ {
			base.SetRGBA(x, y, color.RGBA{R: 100, G: 100, B: 100, A: 255})
		}
	}
	sub := base.SubImage(image.Rect(0, 0, 150, 150))

	scaled := Adjustment{Mode: ModeScale, Alpha: 1.2, Beta: 5}.Apply(sub)
	if scaled.Bounds() != image.Rect(0, 0, 150, 150) {
		t.Fatalf("Bounds() = %v", scaled.Bounds())
	}
	if got, want := scaled.RGBAAt(149, 149), (color.RGBA{R: 125, G: 125, B: 125, A: 255}); got != want {
		t.Errorf("scaled pixel = %v, want %v", got, want)
	}

	// Only the sub-image's uniform pixels count toward auto levels.
	auto := Adjustment{Mode: ModeAuto}.Apply(sub)
	if got, want := auto.RGBAAt(10, 10), (color.RGBA{R: 128, G: 128, B: 128, A: 255}); got != want {
		t.Errorf("auto pixel = %v, want %v", got, want)
	}

	if _, err := NewPipeline(Adjustment{Mode: ModeAuto}).Run(sub); err != nil {
		t.Errorf("Run() error = %v", err)
	}
}

func TestAdjustment_AutoIsDeterministic(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			v := uint8(40 + x*2 + y)
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	a := Adjustment{Mode: ModeAuto}.Apply(img)
	b := Adjustment{Mode: ModeAuto}.Apply(img)
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			t.Fatalf("auto adjustment differs at %d", i)
		}
	}
	// A dark low-contrast patch should be brightened.
	if a.RGBAAt(8, 8).R <= img.RGBAAt(8, 8).R {
		t.Errorf("auto adjustment did not brighten: %v -> %v", img.RGBAAt(8, 8), a.RGBAAt(8, 8))
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeNone, false},
		{"AUTO", ModeAuto, false},
		{"scale", ModeScale, false},
		{"histogram", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseMode(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestPipeline_Run(t *testing.T) {
	p := NewPipeline(Adjustment{Mode: ModeNone})
	tensor, err := p.Run(solid(50, 50, color.RGBA{R: 10, G: 10, B: 10, A: 255}))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if tensor.Width != InputSize || len(tensor.Data) != InputSize*InputSize*3 {
		t.Errorf("unexpected tensor %dx%d len %d", tensor.Width, tensor.Height, len(tensor.Data))
	}
}
