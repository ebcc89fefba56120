package storage

import (
	"context"
	"errors"
	"fmt"

	"argus/core"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// IncidentStorage handles incident persistence and retrieval
type IncidentStorage struct {
	coll *mongo.Collection
}

// NewIncidentStorage creates a new incident storage handler
func NewIncidentStorage(mongoDB *MongoDB) *IncidentStorage {
	return &IncidentStorage{coll: mongoDB.Database.Collection("incidents")}
}

// CreateIncident inserts a new incident
func (s *IncidentStorage) CreateIncident(ctx context.Context, incident *core.Incident) error {
	if _, err := s.coll.InsertOne(ctx, incident); err != nil {
		return fmt.Errorf("failed to insert incident: %w", err)
	}
	return nil
}

// GetIncident retrieves a single incident by ID
func (s *IncidentStorage) GetIncident(ctx context.Context, id string) (*core.Incident, error) {
	var incident core.Incident
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&incident)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrIncidentNotFound
		}
		return nil, fmt.Errorf("failed to find incident: %w", err)
	}
	return &incident, nil
}

// ListIncidents retrieves incidents matching the filters, newest first
func (s *IncidentStorage) ListIncidents(ctx context.Context, filters *core.IncidentFilters) ([]*core.Incident, error) {
	incidents, err := s.GetAllIncidents(ctx)
	if err != nil {
		return nil, err
	}
	return core.FilterIncidents(incidents, filters), nil
}

// GetAllIncidents retrieves every incident
func (s *IncidentStorage) GetAllIncidents(ctx context.Context) ([]*core.Incident, error) {
	cursor, err := s.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to find incidents: %w", err)
	}
	defer cursor.Close(ctx)

	incidents := make([]*core.Incident, 0)
	if err = cursor.All(ctx, &incidents); err != nil {
		return nil, fmt.Errorf("failed to decode incidents: %w", err)
	}
	return incidents, nil
}

// UpdateIncidentStatus patches the status of an incident
func (s *IncidentStorage) UpdateIncidentStatus(ctx context.Context, id string, status core.IncidentStatus) error {
	result, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return fmt.Errorf("failed to update incident status: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrIncidentNotFound
	}
	return nil
}

// AddEvidence appends an evidence reference to an incident
func (s *IncidentStorage) AddEvidence(ctx context.Context, id string, evidence core.Evidence) error {
	result, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$push": bson.M{"evidence": evidence}})
	if err != nil {
		return fmt.Errorf("failed to add evidence: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrIncidentNotFound
	}
	return nil
}

// EnsureIndexes creates necessary indexes for the incidents collection
func (s *IncidentStorage) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}
	if _, err := s.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("failed to create incident indexes: %w", err)
	}
	return nil
}
