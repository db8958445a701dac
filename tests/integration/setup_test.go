package integration

import (
	"os"
	"testing"

	"github.com/taskhive/taskhive-api/internal/realtime"
	"github.com/taskhive/taskhive-api/internal/services"
	"github.com/taskhive/taskhive-api/tests/testutil"
)

// TestMain runs before all tests in this package
func TestMain(m *testing.M) {
	code := m.Run()
	os.Exit(code)
}

// setupTest creates a test database and returns cleanup function
func setupTest(t *testing.T) *testutil.TestDB {
	t.Helper()
	return testutil.SetupTestDB(t)
}

// setupServices wires the full service stack against a live hub, the same
// way main does it.
func setupServices(t *testing.T, tdb *testutil.TestDB) (*services.UserService, *services.ProjectService, *services.TaskService) {
	t.Helper()
	hub := realtime.NewHub()
	go hub.Run()

	users := services.NewUserService(tdb.DB)
	projects := services.NewProjectService(tdb.DB, users, hub)
	tasks := services.NewTaskService(tdb.DB, users, projects, hub)
	return users, projects, tasks
}
