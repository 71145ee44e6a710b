package thicket

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
)

// captureStderr runs fn with os.Stderr redirected and returns what it wrote.
func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stderr
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stderr = w
	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		done <- buf.String()
	}()

	fn()

	_ = w.Close()
	os.Stderr = old
	return <-done
}

func debugScene(t *testing.T) *Scene {
	t.Helper()
	s := NewScene()
	s.SetDebugMode(true)
	t.Cleanup(func() { s.SetDebugMode(false) })
	return s
}

func TestDebugModeDisposedNodePanics(t *testing.T) {
	debugScene(t)
	n := NewNode("gone")
	n.Dispose()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for disposed child")
		}
		if msg := fmt.Sprint(r); !strings.Contains(msg, "disposed") || !strings.Contains(msg, "gone") {
			t.Errorf("panic = %q, want mention of disposed node gone", msg)
		}
	}()
	NewNode("parent").AddChild(n)
}

func TestDebugModeOffAllowsDisposedNode(t *testing.T) {
	n := NewNode("gone")
	n.Dispose()
	p := NewNode("parent")
	p.AddChild(n)
	if n.Parent != p {
		t.Error("AddChild should proceed outside debug mode")
	}
}

func TestDebugTreeDepthWarning(t *testing.T) {
	s := debugScene(t)
	cur := s.Root()
	for i := 0; i < debugMaxTreeDepth+2; i++ {
		child := NewNode(fmt.Sprintf("n%d", i))
		cur.AddChild(child)
		cur = child
	}

	output := captureStderr(t, func() {
		s.DrawTo(newFakeDevice(64, 64))
	})
	if !strings.Contains(output, "warning: tree depth") {
		t.Errorf("expected tree depth warning, got %q", output)
	}
}

func TestDebugChildCountWarning(t *testing.T) {
	s := debugScene(t)
	s.SiblingScanLimit = 2
	for i := 0; i < 3; i++ {
		s.Root().AddChild(NewNode(fmt.Sprintf("c%d", i)))
	}

	output := captureStderr(t, func() {
		s.DrawTo(newFakeDevice(64, 64))
	})
	if !strings.Contains(output, `node "root" has 3 children`) {
		t.Errorf("expected child count warning, got %q", output)
	}
}

func TestDebugLogPrintsStats(t *testing.T) {
	s := debugScene(t)
	s.Root().Drawable = NewSkeletonRenderer(newQuadRig(testTexture(16, 16), 2))

	output := captureStderr(t, func() {
		s.DrawTo(newFakeDevice(64, 64))
	})
	if !strings.Contains(output, "[thicket] traverse:") {
		t.Errorf("missing timing line in %q", output)
	}
	if !strings.Contains(output, "draw calls: 1") {
		t.Errorf("missing draw call count in %q", output)
	}
}

func TestDebugQuietWhenDisabled(t *testing.T) {
	s := NewScene()
	s.Root().Drawable = NewSkeletonRenderer(newQuadRig(testTexture(16, 16), 1))
	output := captureStderr(t, func() {
		s.DrawTo(newFakeDevice(64, 64))
	})
	if output != "" {
		t.Errorf("stderr = %q, want nothing without debug mode", output)
	}
}
