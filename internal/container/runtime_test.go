// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package container

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

// mockExecutor records calls and returns configured responses.
type mockExecutor struct {
	availableBins map[string]bool // binary -> whether LookPath succeeds
	runnableCmds  map[string]bool // "bin arg1 arg2" -> whether Run succeeds
	runFunc       func(name string, args []string, stdout, stderr io.Writer) error
	calls         []string
}

func (m *mockExecutor) LookPath(file string) (string, error) {
	if m.availableBins[file] {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("not found: " + file)
}

func (m *mockExecutor) Run(_ context.Context, name string, args []string, stdout, stderr io.Writer) error {
	key := name + " " + strings.Join(args, " ")
	m.calls = append(m.calls, key)
	if len(args) > 0 && args[0] == "run" && m.runFunc != nil {
		return m.runFunc(name, args, stdout, stderr)
	}
	if m.runnableCmds[key] {
		return nil
	}
	return errors.New("command failed: " + key)
}

func TestDetectRuntime(t *testing.T) {
	tests := []struct {
		name     string
		exec     *mockExecutor
		wantName string
		wantErr  bool
	}{
		{
			name: "docker available",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true},
				runnableCmds:  map[string]bool{"docker info": true},
			},
			wantName: "docker",
		},
		{
			name: "podman fallback when docker missing",
			exec: &mockExecutor{
				availableBins: map[string]bool{"podman": true},
				runnableCmds:  map[string]bool{"podman info": true},
			},
			wantName: "podman",
		},
		{
			name: "neither available",
			exec: &mockExecutor{
				availableBins: map[string]bool{},
				runnableCmds:  map[string]bool{},
			},
			wantErr: true,
		},
		{
			name: "docker on PATH but info fails, podman works",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true, "podman": true},
				runnableCmds:  map[string]bool{"podman info": true},
			},
			wantName: "podman",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, err := detectRuntime(context.Background(), tt.exec)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), "no container runtime available") {
					t.Errorf("error should mention no runtime available, got: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rt.Name() != tt.wantName {
				t.Errorf("got runtime %q, want %q", rt.Name(), tt.wantName)
			}
		})
	}
}

func TestImageExists(t *testing.T) {
	tests := []struct {
		name    string
		mkRT    func(*mockExecutor) Runtime
		image   string
		cmds    map[string]bool
		wantErr bool
	}{
		{
			name:  "docker image exists",
			mkRT:  func(e *mockExecutor) Runtime { return newDockerRuntime(e) },
			image: "convertly/libreoffice:latest",
			cmds:  map[string]bool{"docker image inspect convertly/libreoffice:latest": true},
		},
		{
			name:    "docker image not found",
			mkRT:    func(e *mockExecutor) Runtime { return newDockerRuntime(e) },
			image:   "convertly/libreoffice:latest",
			wantErr: true,
		},
		{
			name:  "podman image exists",
			mkRT:  func(e *mockExecutor) Runtime { return newPodmanRuntime(e) },
			image: "convertly/yt-dlp:latest",
			cmds:  map[string]bool{"podman image exists convertly/yt-dlp:latest": true},
		},
		{
			name:    "podman image not found",
			mkRT:    func(e *mockExecutor) Runtime { return newPodmanRuntime(e) },
			image:   "convertly/yt-dlp:latest",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &mockExecutor{runnableCmds: tt.cmds}
			err := tt.mkRT(exec).ImageExists(context.Background(), tt.image)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.image) {
					t.Errorf("error should mention image name, got: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestRun_Args(t *testing.T) {
	var gotArgs []string
	exec := &mockExecutor{
		runFunc: func(name string, args []string, stdout, stderr io.Writer) error {
			gotArgs = args
			_, _ = stdout.Write([]byte("/data/downloads/out.pdf\n"))
			return nil
		},
	}
	rt := newDockerRuntime(exec)

	var out bytes.Buffer
	err := rt.Run(context.Background(), RunSpec{
		Image:      "convertly/libreoffice:latest",
		Entrypoint: "soffice",
		Args:       []string{"--headless", "--convert-to", "pdf", "/data/uploads/a.docx"},
		Mounts:     []string{"/data/uploads", "/data/downloads"},
		User:       "1000:1000",
	}, &out, io.Discard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "run --rm -v /data/uploads:/data/uploads -v /data/downloads:/data/downloads " +
		"--user 1000:1000 --entrypoint soffice convertly/libreoffice:latest " +
		"--headless --convert-to pdf /data/uploads/a.docx"
	if got := strings.Join(gotArgs, " "); got != want {
		t.Errorf("args =\n  %s\nwant\n  %s", got, want)
	}
	if out.String() != "/data/downloads/out.pdf\n" {
		t.Errorf("stdout not forwarded, got %q", out.String())
	}
}

func TestRun_FailureWrapped(t *testing.T) {
	exec := &mockExecutor{
		runFunc: func(string, []string, io.Writer, io.Writer) error {
			return errors.New("container exited with code 1")
		},
	}
	err := newPodmanRuntime(exec).Run(context.Background(), RunSpec{Image: "img"}, io.Discard, io.Discard)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "running podman container img") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestToolRunner(t *testing.T) {
	var gotArgs []string
	exec := &mockExecutor{
		runnableCmds: map[string]bool{"docker image inspect convertly/yt-dlp:latest": true},
		runFunc: func(name string, args []string, stdout, stderr io.Writer) error {
			gotArgs = args
			return nil
		},
	}
	rt := newDockerRuntime(exec)

	r, err := NewToolRunner(context.Background(), rt, "convertly/yt-dlp:latest", []string{"/srv/downloads"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p, _ := r.LookPath("yt-dlp"); p != "yt-dlp" {
		t.Errorf("LookPath = %q, want yt-dlp", p)
	}
	if err := r.Run(context.Background(), "yt-dlp", []string{"https://example.com/v"}, io.Discard, io.Discard); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	joined := strings.Join(gotArgs, " ")
	for _, want := range []string{"-v /srv/downloads:/srv/downloads", "--entrypoint yt-dlp", "convertly/yt-dlp:latest https://example.com/v"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args %q missing %q", joined, want)
		}
	}
}

func TestNewToolRunner_MissingImage(t *testing.T) {
	rt := newDockerRuntime(&mockExecutor{})
	if _, err := NewToolRunner(context.Background(), rt, "absent:latest", nil); err == nil {
		t.Fatal("expected error for missing image")
	}
}

func TestRuntimeName(t *testing.T) {
	exec := &mockExecutor{}
	if got := newDockerRuntime(exec).Name(); got != "docker" {
		t.Errorf("docker runtime name = %q, want %q", got, "docker")
	}
	if got := newPodmanRuntime(exec).Name(); got != "podman" {
		t.Errorf("podman runtime name = %q, want %q", got, "podman")
	}
}
