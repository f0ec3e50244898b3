package zone

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blambuer11/strun-sub000/internal/db"
	"github.com/blambuer11/strun-sub000/internal/engine"
	"github.com/blambuer11/strun-sub000/internal/engine/geo"
	"github.com/jackc/pgx/v5"
)

var ErrAlreadyClaimed = errors.New("zone already claimed")

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

// Registered reports whether a zone ID is already on the ledger. Duplicate
// prevention is identity-based: the caller computes the ID locally and this
// is a pure lookup.
func (s *Service) Registered(ctx context.Context, zoneID string) (bool, error) {
	var ok bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM zones WHERE id=$1)`, zoneID).Scan(&ok)
	return ok, err
}

// Claim registers a zone descriptor for an owner. The insert is idempotent on
// the zone ID; a conflicting claim returns ErrAlreadyClaimed.
func (s *Service) Claim(ctx context.Context, ownerID, runID string, desc engine.ZoneDescriptor, verdict engine.Verdict) (Zone, error) {
	z := Zone{
		ID:         desc.ID,
		OwnerID:    ownerID,
		RunID:      runID,
		Canonical:  desc.Canonical,
		LatMin:     desc.BBox.LatMin,
		LonMin:     desc.BBox.LonMin,
		LatMax:     desc.BBox.LatMax,
		LonMax:     desc.BBox.LonMax,
		AreaM2:     desc.AreaM2,
		PerimeterM: desc.PerimeterM,
		Verified:   verdict.Valid,
		Issues:     verdict.Issues,
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO zones (id, owner_id, run_id, canonical, lat_min, lon_min, lat_max, lon_max,
		                   area_m2, perimeter_m, verified, issues, polygon)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12, ST_GeogFromText($13))
		ON CONFLICT (id) DO NOTHING
		RETURNING claimed_at
	`, z.ID, z.OwnerID, z.RunID, z.Canonical, z.LatMin, z.LonMin, z.LatMax, z.LonMax,
		z.AreaM2, z.PerimeterM, z.Verified, z.Issues, polygonWKT(desc.Polygon))
	if err := row.Scan(&z.ClaimedAt); err != nil {
		// ON CONFLICT DO NOTHING yields no row when the ID already exists
		if errors.Is(err, pgx.ErrNoRows) {
			return Zone{}, ErrAlreadyClaimed
		}
		return Zone{}, err
	}
	return z, nil
}

func (s *Service) Get(ctx context.Context, zoneID string) (Zone, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, owner_id, run_id, canonical, lat_min, lon_min, lat_max, lon_max,
		       area_m2, perimeter_m, verified, issues, claimed_at
		FROM zones WHERE id=$1
	`, zoneID)
	var z Zone
	if err := row.Scan(&z.ID, &z.OwnerID, &z.RunID, &z.Canonical, &z.LatMin, &z.LonMin, &z.LatMax, &z.LonMax,
		&z.AreaM2, &z.PerimeterM, &z.Verified, &z.Issues, &z.ClaimedAt); err != nil {
		return Zone{}, err
	}
	return z, nil
}

// Near lists zones whose polygon lies within radiusKm of a point.
func (s *Service) Near(ctx context.Context, lat, lng, radiusKm float64) ([]Zone, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, owner_id, run_id, canonical, lat_min, lon_min, lat_max, lon_max,
		       area_m2, perimeter_m, verified, issues, claimed_at
		FROM zones
		WHERE ST_DWithin(polygon, ST_SetSRID(ST_MakePoint($1,$2), 4326)::geography, $3)
		ORDER BY claimed_at DESC
	`, lng, lat, radiusKm*1000)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var zones []Zone
	for rows.Next() {
		var z Zone
		if err := rows.Scan(&z.ID, &z.OwnerID, &z.RunID, &z.Canonical, &z.LatMin, &z.LonMin, &z.LatMax, &z.LonMax,
			&z.AreaM2, &z.PerimeterM, &z.Verified, &z.Issues, &z.ClaimedAt); err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}
	return zones, nil
}

// ByOwner lists an owner's zones, newest first.
func (s *Service) ByOwner(ctx context.Context, ownerID string) ([]Zone, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, owner_id, run_id, canonical, lat_min, lon_min, lat_max, lon_max,
		       area_m2, perimeter_m, verified, issues, claimed_at
		FROM zones WHERE owner_id=$1
		ORDER BY claimed_at DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var zones []Zone
	for rows.Next() {
		var z Zone
		if err := rows.Scan(&z.ID, &z.OwnerID, &z.RunID, &z.Canonical, &z.LatMin, &z.LonMin, &z.LatMax, &z.LonMax,
			&z.AreaM2, &z.PerimeterM, &z.Verified, &z.Issues, &z.ClaimedAt); err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}
	return zones, nil
}

// polygonWKT renders the ring as a closed WKT polygon, lng-lat order.
func polygonWKT(ring []geo.Point) string {
	var b strings.Builder
	b.WriteString("POLYGON((")
	for i, p := range ring {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%f %f", p.Lng, p.Lat)
	}
	if len(ring) > 0 && ring[0] != ring[len(ring)-1] {
		fmt.Fprintf(&b, ", %f %f", ring[0].Lng, ring[0].Lat)
	}
	b.WriteString("))")
	return b.String()
}
