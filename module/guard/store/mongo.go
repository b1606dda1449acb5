package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	mgoSrv "QGuard/service/mgo"
	"QGuard/tools/errs"
)

const mongoCollection = "guard_tables"

// Mongo 每张表在 guard_tables 集合里存一个文档：
// { _id: <table>, doc: <raw json bytes> }
type Mongo struct {
	db *mongo.Database
}

// NewMongo 使用全局连接（global.ConfigMgo 先初始化）。
func NewMongo() *Mongo {
	return &Mongo{db: mgoSrv.GetDB()}
}

func NewMongoWithDB(db *mongo.Database) *Mongo {
	return &Mongo{db: db}
}

type tableDoc struct {
	ID  string `bson:"_id"`
	Doc []byte `bson:"doc"`
}

func (m *Mongo) Load(ctx context.Context, table string) ([]byte, error) {
	var out tableDoc
	err := m.db.Collection(mongoCollection).
		FindOne(ctx, bson.M{"_id": table}).
		Decode(&out)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "mongo load table", "table", table)
	}
	return out.Doc, nil
}

func (m *Mongo) Save(ctx context.Context, table string, doc []byte) error {
	_, err := m.db.Collection(mongoCollection).ReplaceOne(
		ctx,
		bson.M{"_id": table},
		tableDoc{ID: table, Doc: doc},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return errs.WrapMsg(err, "mongo save table", "table", table)
	}
	return nil
}
