package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestListZones_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	rows := sqlmock.NewRows([]string{"name", "latitude", "longitude", "radius"}).
		AddRow("home", 40.7128, -74.0060, 100.0).
		AddRow("office", 40.730610, -73.935242, 150.0)

	mock.ExpectQuery(`SELECT name, latitude, longitude, radius FROM zones ORDER BY position ASC, name ASC`).
		WillReturnRows(rows)

	repo := NewZoneRepo(db)
	zones, err := repo.ListZones(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(zones) != 2 {
		t.Fatalf("expected 2 zones, got %d", len(zones))
	}
	if zones[0].Name != "home" {
		t.Errorf("expected home, got %s", zones[0].Name)
	}
	if zones[0].Center.Lat != 40.7128 || zones[0].Center.Lon != -74.0060 {
		t.Errorf("unexpected center: %+v", zones[0].Center)
	}
	if zones[1].Radius != 150 {
		t.Errorf("expected 150, got %f", zones[1].Radius)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestListZones_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	rows := sqlmock.NewRows([]string{"name", "latitude", "longitude", "radius"})
	mock.ExpectQuery(`SELECT name, latitude, longitude, radius FROM zones`).
		WillReturnRows(rows)

	repo := NewZoneRepo(db)
	zones, err := repo.ListZones(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if zones == nil || len(zones) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", zones)
	}
}

func TestListZones_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`SELECT name, latitude, longitude, radius FROM zones`).
		WillReturnError(sqlmock.ErrCancelled)

	repo := NewZoneRepo(db)
	_, err = repo.ListZones(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestListZones_ScanError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	rows := sqlmock.NewRows([]string{"name", "latitude", "longitude", "radius"}).
		AddRow("home", "not-a-number", -74.0060, 100.0)
	mock.ExpectQuery(`SELECT name, latitude, longitude, radius FROM zones`).
		WillReturnRows(rows)

	repo := NewZoneRepo(db)
	_, err = repo.ListZones(context.Background())
	if err == nil {
		t.Fatal("expected scan error")
	}
}
