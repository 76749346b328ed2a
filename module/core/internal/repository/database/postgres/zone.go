package postgres

import (
	"context"
	"database/sql"

	"github.com/nandanugg/zone-tracker/module/core/domain"
	"github.com/nandanugg/zone-tracker/module/core/internal/repository/database"
)

var _ database.ZoneRepository = (*ZoneRepo)(nil)

type ZoneRepo struct {
	db *sql.DB
}

func NewZoneRepo(db *sql.DB) *ZoneRepo {
	return &ZoneRepo{db: db}
}

func (r *ZoneRepo) ListZones(ctx context.Context) ([]domain.Zone, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, latitude, longitude, radius FROM zones ORDER BY position ASC, name ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	results := []domain.Zone{}
	for rows.Next() {
		var z domain.Zone
		if err := rows.Scan(&z.Name, &z.Center.Lat, &z.Center.Lon, &z.Radius); err != nil {
			return nil, err
		}
		results = append(results, z)
	}
	return results, rows.Err()
}
