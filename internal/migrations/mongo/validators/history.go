package validators

import "go.mongodb.org/mongo-driver/bson"

var ViewHistoryValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"user_id",
			"property_id",
			"timestamp",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"user_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"property_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"timestamp": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var SearchHistoryValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"query",
			"timestamp",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"user_id": bson.M{
				"bsonType": "string",
			},

			"query": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 255,
			},

			"timestamp": bson.M{
				"bsonType": "date",
			},
		},
	},
}
