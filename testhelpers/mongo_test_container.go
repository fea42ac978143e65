package testhelpers

import (
	"context"
	"fmt"

	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

type MongoContainer struct {
	*mongodb.MongoDBContainer
	ConnectionString string
}

func CreateMongoContainer(ctx context.Context) (*MongoContainer, error) {
	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo container: %w", err)
	}
	connectionString, err := mongoContainer.ConnectionString(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get mongo connection string: %w", err)
	}
	return &MongoContainer{
		MongoDBContainer: mongoContainer,
		ConnectionString: connectionString,
	}, nil
}
