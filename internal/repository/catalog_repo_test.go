package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogRepository_GetServiceByCode(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCatalogRepository(db)
	cols := []string{"id", "service_code", "service_name", "service_icon", "service_tariff"}

	mock.ExpectQuery("SELECT \\* FROM `services` WHERE service_code = \\?").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(1, "PLN", "Listrik", "", 10000))
	svc, err := repo.GetServiceByCode(context.Background(), "PLN")
	require.NoError(t, err)
	assert.Equal(t, int64(10000), svc.ServiceTariff)

	mock.ExpectQuery("SELECT \\* FROM `services` WHERE service_code = \\?").
		WillReturnRows(sqlmock.NewRows(cols))
	_, err = repo.GetServiceByCode(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrServiceNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogRepository_ListServices(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCatalogRepository(db)

	mock.ExpectQuery("SELECT \\* FROM `services` ORDER BY id ASC").
		WillReturnRows(sqlmock.NewRows([]string{"id", "service_code", "service_tariff"}).
			AddRow(1, "PLN", 10000).
			AddRow(2, "PULSA", 40000))

	services, err := repo.ListServices(context.Background())
	require.NoError(t, err)
	assert.Len(t, services, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}
