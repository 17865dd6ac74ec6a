// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	nginxImage   = "nginx:1.27-alpine"
	nginxWebRoot = "/usr/share/nginx/html"
)

// RepositoryServer serves a directory over HTTP from an nginx container.
type RepositoryServer struct {
	container testcontainers.Container
	url       string
}

// ContainersAvailable reports whether a container provider can be reached.
// testcontainers may panic when no engine is installed, so that is treated
// as unavailable.
func ContainersAvailable() (available bool) {
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		return false
	}
	defer provider.Close()
	return true
}

// StartRepositoryServer copies every file below dir into an nginx container
// and starts it. The returned server's URL maps to dir.
func StartRepositoryServer(ctx context.Context, dir string) (*RepositoryServer, error) {
	var files []testcontainers.ContainerFile
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		files = append(files, testcontainers.ContainerFile{
			HostFilePath:      p,
			ContainerFilePath: nginxWebRoot + "/" + filepath.ToSlash(rel),
			FileMode:          0o644,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collecting repository files: %w", err)
	}

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        nginxImage,
			ExposedPorts: []string{"80/tcp"},
			Files:        files,
			WaitingFor:   wait.ForHTTP("/").WithPort("80/tcp"),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start repository container: %w", err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		_ = c.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := c.MappedPort(ctx, "80")
	if err != nil {
		_ = c.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	return &RepositoryServer{
		container: c,
		url:       fmt.Sprintf("http://%s:%d", host, port.Int()),
	}, nil
}

// URL returns the base URL of the served directory.
func (s *RepositoryServer) URL() string { return s.url }

// Close terminates the container.
func (s *RepositoryServer) Close(ctx context.Context) error {
	if s.container == nil {
		return nil
	}
	if err := s.container.Terminate(ctx); err != nil {
		return fmt.Errorf("failed to terminate repository container: %w", err)
	}
	return nil
}
