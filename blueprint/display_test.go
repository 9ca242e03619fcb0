package blueprint

import "testing"

func TestStateDisplay_Lifecycle(t *testing.T) {
	d := NewStateDisplay()
	if d.State() != DisplayEmpty {
		t.Fatalf("expected empty start, got %q", d.State())
	}

	d.Loading()
	if d.State() != DisplayLoading {
		t.Fatalf("expected loading, got %q", d.State())
	}
	if d.Snapshot().Spinner {
		t.Fatalf("spinner must stay hidden until the delay elapses")
	}

	d.ShowSpinner()
	if !d.Snapshot().Spinner {
		t.Fatalf("expected visible spinner")
	}

	img := RenderedImage{URL: "http://render/a.png", Width: 36, Height: 24, DPI: 150}
	d.ShowImage(img, "36 x 24 in at 150 DPI")
	snap := d.Snapshot()
	if snap.State != DisplayLoaded {
		t.Fatalf("expected loaded, got %q", snap.State)
	}
	if snap.Spinner {
		t.Fatalf("spinner must be dismissed by a result")
	}
	if snap.Image == nil || snap.Image.URL != img.URL {
		t.Fatalf("expected displayed image, got %+v", snap.Image)
	}
}

func TestStateDisplay_SpinnerOnlyWhileLoading(t *testing.T) {
	d := NewStateDisplay()
	d.Loading()
	d.ShowImage(RenderedImage{URL: "http://render/a.png"}, "")

	// A stale timer firing after the result must not resurface the spinner.
	d.ShowSpinner()
	if d.Snapshot().Spinner {
		t.Fatalf("spinner fired after load must be ignored")
	}
}

func TestStateDisplay_ErrorKeepsImage(t *testing.T) {
	d := NewStateDisplay()
	img := RenderedImage{URL: "http://render/a.png"}
	d.ShowImage(img, "")

	d.Loading()
	d.ShowError(KindExternal, "The rendering service is unavailable.")

	snap := d.Snapshot()
	if snap.State != DisplayErrored {
		t.Fatalf("expected errored, got %q", snap.State)
	}
	if snap.ErrorKind != KindExternal {
		t.Fatalf("expected external kind, got %q", snap.ErrorKind)
	}
	if snap.Image == nil || snap.Image.URL != img.URL {
		t.Fatalf("a failed render must leave the previous image in place")
	}
}
