package validators

import "go.mongodb.org/mongo-driver/bson"

var PropertyValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"owner_id",
			"title",
			"description",
			"property_type",
			"location",
			"nightly_price",
			"rooms",
			"area",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"owner_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"title": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 200,
			},

			"description": bson.M{
				"bsonType":  "string",
				"maxLength": 5000,
			},

			"property_type": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 50,
			},

			"location": bson.M{
				"bsonType": "object",
				"required": []string{"city"},
				"properties": bson.M{
					"city": bson.M{
						"bsonType":  "string",
						"minLength": 2,
						"maxLength": 100,
					},
					"district": bson.M{
						"bsonType":  "string",
						"maxLength": 100,
					},
					"address": bson.M{
						"bsonType":  "string",
						"maxLength": 255,
					},
				},
			},

			"nightly_price": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"rooms": bson.M{
				"bsonType": "int",
				"minimum":  1,
				"maximum":  50,
			},

			"area": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  1,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"active",
					"inactive",
				},
			},

			"views_count": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
