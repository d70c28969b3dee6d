package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"equipflow/sei/internal/textutil"
)

// GetOrCreateEquipmentType returns the equipment type keyed by the slug of
// name, inserting it on first sighting. The bool reports whether it was created.
func (d *DB) GetOrCreateEquipmentType(name string) (*EquipmentType, bool, error) {
	slug := textutil.Slugify(name)
	if slug == "" {
		return nil, false, fmt.Errorf("equipment type %q: %w", name, ErrInvalidNode)
	}

	et, err := d.equipmentTypeBySlug(slug)
	if err == nil {
		return et, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("looking up equipment type %s: %w", slug, err)
	}

	et = &EquipmentType{
		ID:        uuid.NewString(),
		Name:      textutil.TitleCase(name),
		Slug:      slug,
		CreatedAt: d.nowMillis(),
	}
	_, err = d.conn.Exec(
		`INSERT INTO equipment_types (id, name, slug, created_at) VALUES (?, ?, ?, ?)`,
		et.ID, et.Name, et.Slug, et.CreatedAt,
	)
	if isUniqueViolation(err) {
		existing, lookupErr := d.equipmentTypeBySlug(slug)
		if lookupErr != nil {
			return nil, false, fmt.Errorf("re-reading equipment type %s: %w", slug, lookupErr)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("inserting equipment type %s: %w", slug, err)
	}
	return et, true, nil
}

func (d *DB) equipmentTypeBySlug(slug string) (*EquipmentType, error) {
	var et EquipmentType
	err := d.conn.QueryRow(
		`SELECT id, name, slug, hub_node_id, created_at FROM equipment_types WHERE slug = ?`, slug,
	).Scan(&et.ID, &et.Name, &et.Slug, &et.HubNodeID, &et.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &et, nil
}

// GetEquipmentType returns an equipment type by id.
func (d *DB) GetEquipmentType(id string) (*EquipmentType, error) {
	var et EquipmentType
	err := d.conn.QueryRow(
		`SELECT id, name, slug, hub_node_id, created_at FROM equipment_types WHERE id = ?`, id,
	).Scan(&et.ID, &et.Name, &et.Slug, &et.HubNodeID, &et.CreatedAt)
	if err != nil {
		return nil, notFound(err, "equipment type", id)
	}
	return &et, nil
}

// ListEquipmentTypes returns every equipment type ordered by name.
func (d *DB) ListEquipmentTypes() ([]EquipmentType, error) {
	rows, err := d.conn.Query(`SELECT id, name, slug, hub_node_id, created_at FROM equipment_types ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquipmentType
	for rows.Next() {
		var et EquipmentType
		if err := rows.Scan(&et.ID, &et.Name, &et.Slug, &et.HubNodeID, &et.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, et)
	}
	return out, rows.Err()
}

// SetEquipmentHub records the hub node of an equipment type.
func (d *DB) SetEquipmentHub(equipmentTypeID, hubID string) error {
	res, err := d.conn.Exec(`UPDATE equipment_types SET hub_node_id = ? WHERE id = ?`, hubID, equipmentTypeID)
	if err != nil {
		return fmt.Errorf("setting hub for %s: %w", equipmentTypeID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("equipment type %s: %w", equipmentTypeID, ErrNotFound)
	}
	return nil
}

// GetOrCreateBrand returns the brand keyed by the slug of name.
func (d *DB) GetOrCreateBrand(name string) (*Brand, error) {
	slug := textutil.Slugify(name)
	if slug == "" {
		return nil, fmt.Errorf("brand %q: %w", name, ErrInvalidNode)
	}

	var b Brand
	err := d.conn.QueryRow(`SELECT id, name, slug, created_at FROM brands WHERE slug = ?`, slug).
		Scan(&b.ID, &b.Name, &b.Slug, &b.CreatedAt)
	if err == nil {
		return &b, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("looking up brand %s: %w", slug, err)
	}

	b = Brand{ID: uuid.NewString(), Name: textutil.TitleCase(name), Slug: slug, CreatedAt: d.nowMillis()}
	if _, err := d.conn.Exec(
		`INSERT INTO brands (id, name, slug, created_at) VALUES (?, ?, ?, ?)`,
		b.ID, b.Name, b.Slug, b.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("inserting brand %s: %w", slug, err)
	}
	return &b, nil
}

// GetBrand returns a brand by id.
func (d *DB) GetBrand(id string) (*Brand, error) {
	var b Brand
	err := d.conn.QueryRow(`SELECT id, name, slug, created_at FROM brands WHERE id = ?`, id).
		Scan(&b.ID, &b.Name, &b.Slug, &b.CreatedAt)
	if err != nil {
		return nil, notFound(err, "brand", id)
	}
	return &b, nil
}
