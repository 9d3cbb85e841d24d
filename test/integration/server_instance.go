package integration

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/territoryops/recon/pkg/clash"
	"github.com/territoryops/recon/pkg/config"
	"github.com/territoryops/recon/pkg/lock"
	"github.com/territoryops/recon/pkg/server"
	"github.com/territoryops/recon/pkg/server/endpoints"
	gormstore "github.com/territoryops/recon/pkg/server/store/gorm"
)

// portCounter is used to allocate unique ports for each test server
var portCounter int32 = 19000

// ServerInstance represents a running recon server
type ServerInstance struct {
	Server        *server.Server
	ServerURL     string
	Port          int
	cancel        context.CancelFunc
	serverProcess *exec.Cmd
}

// testConfig is the configuration served to the inline server.
func testConfig() *config.ReconConfig {
	return &config.ReconConfig{
		GlobalRoles:       []string{"revops", "admin"},
		ResolutionLockTTL: 30,
		LogLevel:          "warn",
		LogFormat:         "text",
		JWTSecret:         testJWTSecret,
		ExportSheetName:   "Clashes",
	}
}

// startInlineServerInstance starts an in-process server over database
func startInlineServerInstance(database *gorm.DB) (*ServerInstance, error) {
	port := int(atomic.AddInt32(&portCounter, 1))
	cfg := testConfig()

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	entry := logrus.NewEntry(logger)

	accounts := gormstore.NewAccountsStore(database)
	resolutions := gormstore.NewResolutionsStore(database)
	service := clash.NewService(
		clash.NewCollector(gormstore.NewBuildsStore(database), accounts, clash.WithGlobalRoles(cfg.GlobalRoles)),
		clash.NewResolver(accounts, resolutions, clash.WithLocker(lock.NewLocal(), cfg.LockTTL())),
		resolutions,
		entry,
	)

	s := server.NewServer(
		func() *config.ReconConfig { return cfg },
		service,
		gormstore.NewHealthStore(database),
		resolutions,
		logger,
		"127.0.0.1",
		fmt.Sprintf("%d", port),
	)
	endpoints.RegisterAll(s)

	instance := &ServerInstance{
		Server:    s,
		ServerURL: fmt.Sprintf("http://127.0.0.1:%d", port),
		Port:      port,
	}

	go func() {
		_ = s.Start()
	}()

	if err := waitForServer(instance.ServerURL, 10*time.Second); err != nil {
		instance.Stop()
		return nil, fmt.Errorf("server failed to become ready: %w", err)
	}
	return instance, nil
}

// startBinaryServerInstance starts a server using the reconctl binary
func startBinaryServerInstance(binaryPath, dbURL string) (*ServerInstance, error) {
	port := int(atomic.AddInt32(&portCounter, 1))
	portStr := fmt.Sprintf("%d", port)

	ctx, cancel := context.WithCancel(context.Background())

	// Migrations already ran in the test setup
	cmd := exec.CommandContext(ctx, binaryPath, "server", "--no-migrate", "-b", "127.0.0.1", "-p", portStr)
	cmd.Env = append(os.Environ(),
		"DATABASE_URL="+dbURL,
		"RECON_JWT_SECRET="+testJWTSecret,
		"RECON_GLOBAL_ROLES=revops,admin",
		"RECON_AUDIT_ENABLED=false",
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start binary: %w", err)
	}

	instance := &ServerInstance{
		ServerURL:     fmt.Sprintf("http://127.0.0.1:%d", port),
		Port:          port,
		cancel:        cancel,
		serverProcess: cmd,
	}

	if err := waitForServer(instance.ServerURL, 30*time.Second); err != nil {
		instance.Stop()
		return nil, fmt.Errorf("server failed to become ready: %w", err)
	}
	return instance, nil
}

// Stop shuts down the server instance
func (si *ServerInstance) Stop() {
	if si.Server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = si.Server.Shutdown(ctx)
		cancel()
	}
	if si.cancel != nil {
		si.cancel()
	}
	if si.serverProcess != nil && si.serverProcess.Process != nil {
		_ = si.serverProcess.Process.Kill()
		_ = si.serverProcess.Wait()
	}
}
