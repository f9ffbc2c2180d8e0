package sqlite_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/DanielPopoola/ficmart-checkout/internal/infrastructure/persistence/persistencetest"
	"github.com/DanielPopoola/ficmart-checkout/internal/infrastructure/persistence/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type PaymentRepositoryTestSuite struct {
	persistencetest.RepositorySuite
	repo *sqlite.PaymentRepository
}

func (s *PaymentRepositoryTestSuite) SetupTest() {
	repo, err := sqlite.Open(filepath.Join(s.T().TempDir(), "checkout.db"))
	s.Require().NoError(err)
	s.repo = repo
	s.Repo = repo
}

func (s *PaymentRepositoryTestSuite) TearDownTest() {
	s.NoError(s.repo.Close())
}

func TestPaymentRepositorySuite(t *testing.T) {
	suite.Run(t, new(PaymentRepositoryTestSuite))
}

func TestOpen_CreatesDirectoryAndExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	repo, err := sqlite.Open("~/nested/dir/checkout.db")
	require.NoError(t, err)
	defer repo.Close()

	_, err = os.Stat(filepath.Join(home, "nested", "dir", "checkout.db"))
	assert.NoError(t, err)
}
