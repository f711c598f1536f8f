package grade

import (
	"errors"
	"log/slog"
	"sync"
	"testing"
)

// mockAccelerator implements GPUAccelerator for testing.
type mockAccelerator struct {
	mu          sync.Mutex
	name        string
	initErr     error
	setImageErr error
	renderErr   error
	logger      *slog.Logger
	closed      bool
	images      []*Image
	frames      int
	lastParams  Params
	fill        uint8
}

func (m *mockAccelerator) Name() string { return m.name }

func (m *mockAccelerator) Init() error { return m.initErr }

func (m *mockAccelerator) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
}

func (m *mockAccelerator) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *mockAccelerator) SetLogger(l *slog.Logger) {
	m.logger = l
}

func (m *mockAccelerator) SetImage(im *Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setImageErr != nil {
		return m.setImageErr
	}
	m.images = append(m.images, im)
	return nil
}

// RenderFrame fills dst with a uniform marker color so tests can tell a GPU
// frame from a CPU frame.
func (m *mockAccelerator) RenderFrame(p Params, dst *Pixmap) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.renderErr != nil {
		return m.renderErr
	}
	m.frames++
	m.lastParams = p
	dst.Clear(m.fill, m.fill, m.fill, 0xFF)
	return nil
}

func (m *mockAccelerator) frameCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frames
}

func (m *mockAccelerator) imageCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.images)
}

// resetAccelerator clears the global accelerator state between tests.
func resetAccelerator() {
	accelMu.Lock()
	accel = nil
	accelMu.Unlock()
}

func TestRegisterAcceleratorNil(t *testing.T) {
	resetAccelerator()

	err := RegisterAccelerator(nil)
	if err == nil {
		t.Fatal("expected error when registering nil accelerator")
	}
	if err.Error() != "grade: accelerator must not be nil" {
		t.Errorf("unexpected error message: %s", err.Error())
	}
	if Accelerator() != nil {
		t.Error("accelerator should remain nil after failed registration")
	}
}

func TestRegisterAcceleratorInitError(t *testing.T) {
	resetAccelerator()

	initErr := errors.New("GPU init failed")
	mock := &mockAccelerator{name: "failing", initErr: initErr}

	err := RegisterAccelerator(mock)
	if err == nil {
		t.Fatal("expected error when Init fails")
	}
	if !errors.Is(err, initErr) {
		t.Errorf("expected init error, got: %v", err)
	}
	if Accelerator() != nil {
		t.Error("accelerator should remain nil after Init failure")
	}
}

func TestRegisterAcceleratorSuccess(t *testing.T) {
	resetAccelerator()

	mock := &mockAccelerator{name: "test-gpu"}
	err := RegisterAccelerator(mock)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a := Accelerator()
	if a == nil {
		t.Fatal("expected non-nil accelerator after registration")
	}
	if a.Name() != "test-gpu" {
		t.Errorf("expected name %q, got %q", "test-gpu", a.Name())
	}

	resetAccelerator()
}

func TestRegisterAcceleratorReplacesOld(t *testing.T) {
	resetAccelerator()

	first := &mockAccelerator{name: "first"}
	second := &mockAccelerator{name: "second"}

	if err := RegisterAccelerator(first); err != nil {
		t.Fatalf("unexpected error registering first: %v", err)
	}
	if err := RegisterAccelerator(second); err != nil {
		t.Fatalf("unexpected error registering second: %v", err)
	}

	// First accelerator should be closed.
	if !first.isClosed() {
		t.Error("expected first accelerator to be closed after replacement")
	}

	// Second should be current.
	a := Accelerator()
	if a == nil {
		t.Fatal("expected non-nil accelerator")
	}
	if a.Name() != "second" {
		t.Errorf("expected name %q, got %q", "second", a.Name())
	}

	// Second should NOT be closed.
	if second.isClosed() {
		t.Error("second accelerator should not be closed")
	}

	resetAccelerator()
}

func TestAcceleratorReturnsNilWhenNoneRegistered(t *testing.T) {
	resetAccelerator()

	a := Accelerator()
	if a != nil {
		t.Errorf("expected nil accelerator, got %v", a)
	}
}

func TestCloseAccelerator(t *testing.T) {
	resetAccelerator()

	mock := &mockAccelerator{name: "closing"}
	if err := RegisterAccelerator(mock); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	CloseAccelerator()

	if !mock.isClosed() {
		t.Error("expected accelerator to be closed")
	}
	if Accelerator() != nil {
		t.Error("accelerator should be unregistered after CloseAccelerator")
	}

	// A second close with nothing registered must be a no-op.
	CloseAccelerator()
}

// providerAwareAccelerator extends mockAccelerator with device sharing.
type providerAwareAccelerator struct {
	mockAccelerator
	provider any
}

func (p *providerAwareAccelerator) SetDeviceProvider(provider any) error {
	p.provider = provider
	return nil
}

func TestSetAcceleratorDeviceProvider(t *testing.T) {
	resetAccelerator()
	t.Cleanup(resetAccelerator)

	aware := &providerAwareAccelerator{mockAccelerator: mockAccelerator{name: "aware"}}
	if err := RegisterAccelerator(aware); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	marker := struct{ tag string }{"provider"}
	if err := SetAcceleratorDeviceProvider(marker); err != nil {
		t.Fatalf("SetAcceleratorDeviceProvider() = %v", err)
	}
	if aware.provider != marker {
		t.Error("provider was not forwarded to the accelerator")
	}
}

func TestSetAcceleratorDeviceProviderWithoutAccelerator(t *testing.T) {
	resetAccelerator()

	if err := SetAcceleratorDeviceProvider(struct{}{}); err != nil {
		t.Errorf("expected nil error with no accelerator, got %v", err)
	}
}

func TestSetAcceleratorDeviceProviderUnaware(t *testing.T) {
	resetAccelerator()
	t.Cleanup(resetAccelerator)

	// A plain accelerator without SetDeviceProvider: forwarding is a no-op.
	mock := &mockAccelerator{name: "plain"}
	if err := RegisterAccelerator(mock); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := SetAcceleratorDeviceProvider(struct{}{}); err != nil {
		t.Errorf("expected nil error for unaware accelerator, got %v", err)
	}
}

func TestErrFallbackToCPU(t *testing.T) {
	if !errors.Is(ErrFallbackToCPU, ErrFallbackToCPU) {
		t.Error("ErrFallbackToCPU should match itself with errors.Is")
	}

	// Verify it works when wrapped.
	wrappedErr := errors.Join(ErrFallbackToCPU, errors.New("detail"))
	if !errors.Is(wrappedErr, ErrFallbackToCPU) {
		t.Error("wrapped ErrFallbackToCPU should be detectable with errors.Is")
	}
}

func BenchmarkAcceleratorNilCheck(b *testing.B) {
	resetAccelerator()

	b.ReportAllocs()
	for b.Loop() {
		a := Accelerator()
		if a != nil {
			b.Fatal("should be nil")
		}
	}
}

func BenchmarkAcceleratorRegistered(b *testing.B) {
	resetAccelerator()
	mock := &mockAccelerator{name: "bench"}
	if err := RegisterAccelerator(mock); err != nil {
		b.Fatalf("unexpected error: %v", err)
	}
	defer resetAccelerator()

	b.ReportAllocs()
	for b.Loop() {
		a := Accelerator()
		if a == nil {
			b.Fatal("should not be nil")
		}
	}
}
