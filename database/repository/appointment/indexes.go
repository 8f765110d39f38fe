package appointmentRepo

import (
	"context"
	"time"

	"slotbook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ensureIndexes creates indexes for frequently used fields in queries.
func (r *MongoAppointmentRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Partial unique index: at most one confirmed appointment per slot.
	// This is the durable arbiter for who actually gets the appointment.
	uniqueConfirmed := mongo.IndexModel{
		Keys: bson.D{
			{Key: "service_id", Value: 1},
			{Key: "slot_key", Value: 1},
		},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"status": models.AppointmentStatusConfirmed}),
	}

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		uniqueConfirmed,
		{Keys: bson.D{{Key: "service_id", Value: 1}, {Key: "start", Value: 1}}},
		{Keys: bson.D{{Key: "client_id", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}
