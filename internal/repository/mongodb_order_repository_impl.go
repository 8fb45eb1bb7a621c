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
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoDBOrderRepositoryImpl struct {
	db *mongo.Database
}

func CreateMongoDBOrderRepository(db *mongo.Database) OrderRepository {
	return &MongoDBOrderRepositoryImpl{db: db}
}

func (r *MongoDBOrderRepositoryImpl) orders() *mongo.Collection {
	return r.db.Collection(OrdersCollection)
}

func (r *MongoDBOrderRepositoryImpl) AddOrder(ctx context.Context, data domain.Order) (id string, err error) {
	data.ID = primitive.NilObjectID

	result, err := r.orders().InsertOne(ctx, data)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "AddOrder").Msg("")
		return
	}

	return result.InsertedID.(primitive.ObjectID).Hex(), nil
}

func (r *MongoDBOrderRepositoryImpl) GetOrderByID(ctx context.Context, id string) (data domain.Order, err error) {
	orderID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return data, errs.ErrNotFound
	}

	return r.findOne(ctx, "GetOrderByID", bson.D{{Key: "_id", Value: orderID}})
}

func (r *MongoDBOrderRepositoryImpl) GetOrderByOrderNumber(ctx context.Context, orderNumber string) (data domain.Order, err error) {
	return r.findOne(ctx, "GetOrderByOrderNumber", bson.D{{Key: "orderNumber", Value: orderNumber}})
}

func (r *MongoDBOrderRepositoryImpl) GetOrderByPaymentReference(ctx context.Context, reference string) (data domain.Order, err error) {
	return r.findOne(ctx, "GetOrderByPaymentReference", bson.D{{Key: "payment.reference", Value: reference}})
}

func (r *MongoDBOrderRepositoryImpl) GetOrderByOrderNumberAndPhone(ctx context.Context, orderNumber string, phone string) (data domain.Order, err error) {
	return r.findOne(ctx, "GetOrderByOrderNumberAndPhone", bson.D{
		{Key: "orderNumber", Value: orderNumber},
		{Key: "customer.phone", Value: phone},
	})
}

func (r *MongoDBOrderRepositoryImpl) findOne(ctx context.Context, component string, filter bson.D) (data domain.Order, err error) {
	err = r.orders().FindOne(ctx, filter).Decode(&data)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return data, errs.ErrNotFound
		}

		log.Ctx(ctx).Error().Err(err).Str("component", component).Msg("")
		return data, err
	}

	return data, nil
}

func (r *MongoDBOrderRepositoryImpl) GetOrders(ctx context.Context, filter pkgdto.Filter) (data []domain.Order, err error) {
	query := bson.D{}
	if filter.Status != "" {
		query = append(query, bson.E{Key: "status", Value: filter.Status})
	}
	if filter.PaymentStatus != "" {
		query = append(query, bson.E{Key: "payment.status", Value: filter.PaymentStatus})
	}
	if filter.PaymentMethod != "" {
		query = append(query, bson.E{Key: "payment.method", Value: filter.PaymentMethod})
	}

	createdAt := bson.D{}
	if filter.CreatedAfter != nil {
		createdAt = append(createdAt, bson.E{Key: "$gte", Value: *filter.CreatedAfter})
	}
	if filter.CreatedBefore != nil {
		createdAt = append(createdAt, bson.E{Key: "$lt", Value: *filter.CreatedBefore})
	}
	if len(createdAt) > 0 {
		query = append(query, bson.E{Key: "createdAt", Value: createdAt})
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if filter.Limit != 0 {
		opts.SetLimit(int64(filter.Limit))
		if filter.Page > 1 {
			opts.SetSkip((int64(filter.Page) - 1) * int64(filter.Limit))
		}
	}

	cursor, err := r.orders().Find(ctx, query, opts)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "GetOrders").Msg("")
		return
	}

	if err = cursor.All(ctx, &data); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "GetOrders").Msg("")
		return
	}

	return data, nil
}

func (r *MongoDBOrderRepositoryImpl) MarkOrderPaid(ctx context.Context, id string, data domain.PaymentConfirmation) (updated bool, err error) {
	filter := bson.D{
		{Key: "payment.status", Value: bson.D{{Key: "$nin", Value: bson.A{domain.PaymentStatusPaid, domain.PaymentStatusFraudCheck}}}},
	}

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "payment.status", Value: domain.PaymentStatusPaid},
		{Key: "payment.reference", Value: data.Reference},
		{Key: "payment.paidAt", Value: data.PaidAt},
		{Key: "payment.method", Value: data.Channel},
		{Key: "status", Value: domain.OrderStatusConfirmed},
		{Key: "updatedAt", Value: data.PaidAt},
	}}}

	return r.updateOne(ctx, "MarkOrderPaid", id, filter, update)
}

func (r *MongoDBOrderRepositoryImpl) FlagOrderForFraudCheck(ctx context.Context, id string, warning string, reference string, now time.Time) (flagged bool, err error) {
	filter := bson.D{
		{Key: "$nor", Value: bson.A{
			bson.D{{Key: "payment.status", Value: domain.PaymentStatusPaid}},
			bson.D{
				{Key: "payment.status", Value: domain.PaymentStatusFraudCheck},
				{Key: "payment.rawReference", Value: reference},
			},
		}},
	}

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "payment.status", Value: domain.PaymentStatusFraudCheck},
		{Key: "payment.warning", Value: warning},
		{Key: "payment.rawReference", Value: reference},
		{Key: "updatedAt", Value: now},
	}}}

	return r.updateOne(ctx, "FlagOrderForFraudCheck", id, filter, update)
}

func (r *MongoDBOrderRepositoryImpl) MarkOrderPaymentFailed(ctx context.Context, id string, now time.Time) (err error) {
	filter := bson.D{
		{Key: "payment.status", Value: bson.D{{Key: "$ne", Value: domain.PaymentStatusPaid}}},
	}

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "payment.status", Value: domain.PaymentStatusFailed},
		{Key: "updatedAt", Value: now},
	}}}

	_, err = r.updateOne(ctx, "MarkOrderPaymentFailed", id, filter, update)
	return
}

func (r *MongoDBOrderRepositoryImpl) UpdateOrderStatus(ctx context.Context, id string, from string, to string, now time.Time) (updated bool, err error) {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "status", Value: to},
		{Key: "updatedAt", Value: now},
	}}}

	return r.updateOne(ctx, "UpdateOrderStatus", id, bson.D{{Key: "status", Value: from}}, update)
}

func (r *MongoDBOrderRepositoryImpl) MarkOrderDelivered(ctx context.Context, id string, from string, collectCash bool, now time.Time) (updated bool, err error) {
	fields := bson.D{
		{Key: "status", Value: domain.OrderStatusDelivered},
		{Key: "delivery.status", Value: domain.OrderStatusDelivered},
		{Key: "updatedAt", Value: now},
	}
	if collectCash {
		fields = append(fields,
			bson.E{Key: "payment.status", Value: domain.PaymentStatusPaid},
			bson.E{Key: "payment.paidAt", Value: now},
		)
	}

	return r.updateOne(ctx, "MarkOrderDelivered", id, bson.D{{Key: "status", Value: from}}, bson.D{{Key: "$set", Value: fields}})
}

// updateOne applies update to the order with the given id and reports whether
// the conditional filter matched. Only a missing order is an error.
func (r *MongoDBOrderRepositoryImpl) updateOne(ctx context.Context, component string, id string, filter bson.D, update bson.D) (updated bool, err error) {
	orderID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, errs.ErrNotFound
	}

	filter = append(bson.D{{Key: "_id", Value: orderID}}, filter...)

	result, err := r.orders().UpdateOne(ctx, filter, update)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", component).Msg("Failed to update order")
		return
	}

	if result.MatchedCount == 0 {
		count, err := r.orders().CountDocuments(ctx, bson.D{{Key: "_id", Value: orderID}})
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Str("component", component).Msg("")
			return false, err
		}
		if count == 0 {
			return false, errs.ErrNotFound
		}

		log.Ctx(ctx).Info().Str("component", component).Str("order_id", id).Msg("order state changed, update skipped")
		return false, nil
	}

	return true, nil
}

type orderChangeEvent struct {
	OperationType string        `bson:"operationType"`
	FullDocument  *domain.Order `bson:"fullDocument"`
}

// WatchOrders streams inserts and updates on the orders collection until ctx
// is done. Change streams require a replica set deployment.
func (r *MongoDBOrderRepositoryImpl) WatchOrders(ctx context.Context) (<-chan domain.OrderChange, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{
			{Key: "operationType", Value: bson.D{{Key: "$in", Value: bson.A{"insert", "update", "replace"}}}},
		}}},
	}

	stream, err := r.orders().Watch(ctx, pipeline, options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "WatchOrders").Msg("")
		return nil, err
	}

	changes := make(chan domain.OrderChange, 64)
	go func() {
		defer close(changes)
		defer stream.Close(context.Background())

		for stream.Next(ctx) {
			var event orderChangeEvent
			if err := stream.Decode(&event); err != nil {
				log.Ctx(ctx).Error().Err(err).Str("component", "WatchOrders").Msg("")
				continue
			}
			if event.FullDocument == nil {
				continue
			}

			select {
			case changes <- domain.OrderChange{Operation: event.OperationType, Order: *event.FullDocument}:
			case <-ctx.Done():
				return
			}
		}

		if err := stream.Err(); err != nil && ctx.Err() == nil {
			log.Ctx(ctx).Error().Err(err).Str("component", "WatchOrders").Msg("change stream closed")
		}
	}()

	return changes, nil
}
