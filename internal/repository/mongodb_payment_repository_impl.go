package repository

import (
	"context"
	"errors"
	"time"

	"github.com/alimikegami/crispy-cravings/payment-service/internal/domain"
	pkgdto "github.com/alimikegami/crispy-cravings/payment-service/pkg/dto"
	"github.com/alimikegami/crispy-cravings/payment-service/pkg/errs"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoDBPaymentRepositoryImpl struct {
	db *mongo.Database
}

func CreateMongoDBPaymentRepository(db *mongo.Database) PaymentRepository {
	return &MongoDBPaymentRepositoryImpl{db: db}
}

func (r *MongoDBPaymentRepositoryImpl) payments() *mongo.Collection {
	return r.db.Collection(PaymentsCollection)
}

func (r *MongoDBPaymentRepositoryImpl) GetPayment(ctx context.Context, reference string) (data domain.Payment, err error) {
	err = r.payments().FindOne(ctx, bson.D{{Key: "_id", Value: reference}}).Decode(&data)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return data, errs.ErrNotFound
		}

		log.Ctx(ctx).Error().Err(err).Str("component", "GetPayment").Msg("")
		return data, err
	}

	return data, nil
}

func (r *MongoDBPaymentRepositoryImpl) ClaimPayment(ctx context.Context, reference string, now time.Time, lease time.Duration) (claimed bool, err error) {
	_, err = r.payments().InsertOne(ctx, domain.Payment{
		Reference: reference,
		Status:    domain.LedgerStatusProcessing,
		ClaimedAt: &now,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err == nil {
		return true, nil
	}

	if !mongo.IsDuplicateKeyError(err) {
		log.Ctx(ctx).Error().Err(err).Str("component", "ClaimPayment").Msg("")
		return false, err
	}

	filter := bson.D{
		{Key: "_id", Value: reference},
		{Key: "$or", Value: bson.A{
			bson.D{{Key: "status", Value: domain.LedgerStatusFailed}},
			bson.D{
				{Key: "status", Value: domain.LedgerStatusProcessing},
				{Key: "claimedAt", Value: bson.D{{Key: "$lt", Value: now.Add(-lease)}}},
			},
		}},
	}

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "status", Value: domain.LedgerStatusProcessing},
		{Key: "claimedAt", Value: now},
		{Key: "updatedAt", Value: now},
	}}}

	result, err := r.payments().UpdateOne(ctx, filter, update)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "ClaimPayment").Msg("")
		return false, err
	}

	return result.MatchedCount == 1, nil
}

func (r *MongoDBPaymentRepositoryImpl) ReleasePaymentClaim(ctx context.Context, reference string) (err error) {
	_, err = r.payments().DeleteOne(ctx, bson.D{
		{Key: "_id", Value: reference},
		{Key: "status", Value: domain.LedgerStatusProcessing},
	})
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "ReleasePaymentClaim").Msg("")
	}

	return
}

func (r *MongoDBPaymentRepositoryImpl) UpsertPayment(ctx context.Context, data domain.Payment) (err error) {
	fields := bson.D{
		{Key: "amount", Value: data.Amount},
		{Key: "status", Value: data.Status},
		{Key: "channel", Value: data.Channel},
		{Key: "updatedAt", Value: data.UpdatedAt},
	}
	if data.Customer != nil {
		fields = append(fields, bson.E{Key: "customer", Value: data.Customer})
	}
	if data.VerifiedAt != nil {
		fields = append(fields, bson.E{Key: "verifiedAt", Value: *data.VerifiedAt})
	}
	if data.RawPayload != nil {
		fields = append(fields, bson.E{Key: "rawPayload", Value: data.RawPayload})
	}

	update := bson.D{
		{Key: "$set", Value: fields},
		{Key: "$setOnInsert", Value: bson.D{{Key: "createdAt", Value: data.CreatedAt}}},
	}

	_, err = r.payments().UpdateOne(ctx, bson.D{{Key: "_id", Value: data.Reference}}, update, options.Update().SetUpsert(true))
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "UpsertPayment").Msg("")
	}

	return
}

func (r *MongoDBPaymentRepositoryImpl) RecordFailedPayment(ctx context.Context, data domain.Payment) (err error) {
	filter := bson.D{
		{Key: "_id", Value: data.Reference},
		{Key: "status", Value: bson.D{{Key: "$ne", Value: domain.LedgerStatusSuccess}}},
	}

	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "status", Value: domain.LedgerStatusFailed},
			{Key: "amount", Value: data.Amount},
			{Key: "rawPayload", Value: data.RawPayload},
			{Key: "updatedAt", Value: data.UpdatedAt},
		}},
		{Key: "$setOnInsert", Value: bson.D{{Key: "createdAt", Value: data.CreatedAt}}},
	}

	_, err = r.payments().UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		// The upsert collides with the existing success entry.
		if mongo.IsDuplicateKeyError(err) {
			log.Ctx(ctx).Warn().Str("component", "RecordFailedPayment").Str("reference", data.Reference).Msg("reference already settled, failure not recorded")
			return nil
		}

		log.Ctx(ctx).Error().Err(err).Str("component", "RecordFailedPayment").Msg("")
	}

	return
}

func (r *MongoDBPaymentRepositoryImpl) AddUnmatchedPayment(ctx context.Context, data domain.UnmatchedPayment) (err error) {
	update := bson.D{{Key: "$setOnInsert", Value: bson.D{
		{Key: "amount", Value: data.Amount},
		{Key: "channel", Value: data.Channel},
		{Key: "source", Value: data.Source},
		{Key: "rawPayload", Value: data.RawPayload},
		{Key: "createdAt", Value: data.CreatedAt},
	}}}

	_, err = r.db.Collection(UnmatchedPaymentsCollection).UpdateOne(ctx, bson.D{{Key: "_id", Value: data.Reference}}, update, options.Update().SetUpsert(true))
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "AddUnmatchedPayment").Msg("")
	}

	return
}

func (r *MongoDBPaymentRepositoryImpl) GetUnmatchedPayments(ctx context.Context, filter pkgdto.Filter) (data []domain.UnmatchedPayment, err error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if filter.Limit != 0 {
		opts.SetLimit(int64(filter.Limit))
		if filter.Page > 1 {
			opts.SetSkip((int64(filter.Page) - 1) * int64(filter.Limit))
		}
	}

	cursor, err := r.db.Collection(UnmatchedPaymentsCollection).Find(ctx, bson.D{}, opts)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "GetUnmatchedPayments").Msg("")
		return
	}

	if err = cursor.All(ctx, &data); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "GetUnmatchedPayments").Msg("")
		return
	}

	return data, nil
}
