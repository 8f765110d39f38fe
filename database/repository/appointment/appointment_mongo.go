package appointmentRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"slotbook/config"
	"slotbook/database"
	"slotbook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoAppointmentRepo implements AppointmentRepository using MongoDB.
type MongoAppointmentRepo struct {
	coll *mongo.Collection
}

// NewMongoAppointmentRepo creates a new instance of AppointmentRepository
// using MongoDB and ensures its indexes.
func NewMongoAppointmentRepo() AppointmentRepository {
	coll := database.MongoClient.Database(config.AppConfig.DatabaseName).Collection("appointments")
	repo := &MongoAppointmentRepo{coll: coll}
	if err := repo.ensureIndexes(); err != nil {
		panic(fmt.Sprintf("failed to ensure appointment indexes: %v", err))
	}
	return repo
}

func (r *MongoAppointmentRepo) GetConfirmed(ctx context.Context, serviceID, slotKey string) (*models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	var appt models.Appointment
	filter := bson.M{
		"service_id": serviceID,
		"slot_key":   slotKey,
		"status":     models.AppointmentStatusConfirmed,
	}
	if err := r.coll.FindOne(ctx, filter).Decode(&appt); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch appointment for slot %s: %w", slotKey, err)
	}
	return &appt, nil
}

func (r *MongoAppointmentRepo) FindConfirmedInRange(ctx context.Context, serviceID string, from, to time.Time) ([]models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	filter := bson.M{
		"service_id": serviceID,
		"status":     models.AppointmentStatusConfirmed,
		"start":      bson.M{"$gte": from, "$lt": to},
	}
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments in range: %w", err)
	}
	defer cursor.Close(ctx)
	var appts []models.Appointment
	for cursor.Next(ctx) {
		var a models.Appointment
		if err := cursor.Decode(&a); err != nil {
			return nil, fmt.Errorf("failed to decode appointment: %w", err)
		}
		appts = append(appts, a)
	}
	return appts, nil
}

// CreateConfirmed re-checks for a confirmed conflict and inserts inside a
// single Mongo transaction. A plain query-then-insert would leave a race
// window between the read and the write.
func (r *MongoAppointmentRepo) CreateConfirmed(ctx context.Context, appt *models.Appointment) error {
	client := r.coll.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	txnFn := func(sc mongo.SessionContext) error {
		filter := bson.M{
			"service_id": appt.ServiceID,
			"slot_key":   appt.SlotKey,
			"status":     models.AppointmentStatusConfirmed,
		}
		count, err := r.coll.CountDocuments(sc, filter)
		if err != nil {
			return fmt.Errorf("conflict check failed: %w", err)
		}
		if count > 0 {
			return ErrSlotTaken
		}
		if _, err := r.coll.InsertOne(sc, appt); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ErrSlotTaken
			}
			return fmt.Errorf("insert appointment failed: %w", err)
		}
		return nil
	}

	if err := mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := txnFn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	}); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			return ErrSlotTaken
		}
		return fmt.Errorf("appointment transaction failed: %w", err)
	}

	return nil
}
