package db

import (
	"context"
	"encoding/base64"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"choreboard-backend-go/internal/config"
)

// FirebaseClients bundles the clients produced by Firebase Admin SDK
// initialization. They are constructed once in the composition root and
// passed down explicitly; nothing in this package holds package-level state.
type FirebaseClients struct {
	App       *firebase.App
	Firestore *firestore.Client
	Auth      *auth.Client
}

// InitFirebase initializes the Firebase Admin SDK from the application
// config. Credentials come from a service-account file path, a base64-encoded
// service-account JSON blob, or Application Default Credentials, in that
// order of preference.
func InitFirebase(ctx context.Context, appConfig *config.Config, logger *zap.Logger) (*FirebaseClients, error) {
	if appConfig == nil {
		return nil, fmt.Errorf("InitFirebase: appConfig cannot be nil")
	}

	var opts []option.ClientOption
	switch {
	case appConfig.GoogleApplicationCredentials != "":
		logger.Info("initializing Firebase with credentials file",
			zap.String("path", appConfig.GoogleApplicationCredentials))
		opts = append(opts, option.WithCredentialsFile(appConfig.GoogleApplicationCredentials))
	case appConfig.FirebaseServiceAccountJSONBase64 != "":
		logger.Info("initializing Firebase with base64 service account JSON")
		decoded, err := base64.StdEncoding.DecodeString(appConfig.FirebaseServiceAccountJSONBase64)
		if err != nil {
			return nil, fmt.Errorf("failed to decode FIREBASE_SERVICE_ACCOUNT_JSON_BASE64: %w", err)
		}
		opts = append(opts, option.WithCredentialsJSON(decoded))
	default:
		logger.Info("initializing Firebase with Application Default Credentials")
	}

	var fbConfig *firebase.Config
	if appConfig.FirebaseProjectID != "" {
		fbConfig = &firebase.Config{
			ProjectID:     appConfig.FirebaseProjectID,
			StorageBucket: appConfig.StorageBucket,
		}
	}

	app, err := firebase.NewApp(ctx, fbConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase.NewApp: %w", err)
	}

	fsClient, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("app.Firestore: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		fsClient.Close()
		return nil, fmt.Errorf("app.Auth: %w", err)
	}

	return &FirebaseClients{App: app, Firestore: fsClient, Auth: authClient}, nil
}

// firestoreStore implements Store on a Firestore client.
type firestoreStore struct {
	client *firestore.Client
	logger *zap.Logger
}

// NewFirestoreStore wraps a Firestore client in the Store contract.
func NewFirestoreStore(client *firestore.Client, logger *zap.Logger) Store {
	return &firestoreStore{client: client, logger: logger}
}

func (s *firestoreStore) GetDocument(ctx context.Context, path string) (Document, error) {
	snap, err := s.client.Doc(path).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return Document{}, fmt.Errorf("get %s: %w", path, ErrNotFound)
		}
		return Document{}, fmt.Errorf("get %s: %w", path, err)
	}
	return Document{ID: snap.Ref.ID, Data: snap.Data()}, nil
}

func (s *firestoreStore) SetDocument(ctx context.Context, path string, data map[string]interface{}) error {
	if _, err := s.client.Doc(path).Set(ctx, data); err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	return nil
}

func (s *firestoreStore) UpdateFields(ctx context.Context, path string, fields map[string]interface{}) error {
	if _, err := s.client.Doc(path).Set(ctx, fields, firestore.MergeAll); err != nil {
		return fmt.Errorf("update %s: %w", path, err)
	}
	return nil
}

func (s *firestoreStore) DeleteDocument(ctx context.Context, path string) error {
	if _, err := s.client.Doc(path).Delete(ctx); err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

func (s *firestoreStore) SubscribeDocument(ctx context.Context, path string, onSnapshot func(Document, bool), onError func(error)) Handle {
	subCtx, cancel := context.WithCancel(ctx)
	go func() {
		it := s.client.Doc(path).Snapshots(subCtx)
		defer it.Stop()
		for {
			snap, err := it.Next()
			if err != nil {
				if subCtx.Err() != nil || status.Code(err) == codes.Canceled {
					return
				}
				onError(fmt.Errorf("subscribe %s: %w", path, err))
				return
			}
			if !snap.Exists() {
				onSnapshot(Document{ID: snap.Ref.ID}, false)
				continue
			}
			onSnapshot(Document{ID: snap.Ref.ID, Data: snap.Data()}, true)
		}
	}()
	return handleFunc(cancel)
}

func (s *firestoreStore) SubscribeCollection(ctx context.Context, q CollectionQuery, onSnapshot func([]Document), onError func(error)) Handle {
	subCtx, cancel := context.WithCancel(ctx)

	query := s.client.Collection(q.Path).Query
	if q.OrderBy != "" {
		dir := firestore.Desc
		if q.Ascending {
			dir = firestore.Asc
		}
		query = query.OrderBy(q.OrderBy, dir)
	}

	go func() {
		it := query.Snapshots(subCtx)
		defer it.Stop()
		for {
			qsnap, err := it.Next()
			if err != nil {
				if subCtx.Err() != nil || status.Code(err) == codes.Canceled {
					return
				}
				onError(fmt.Errorf("subscribe %s: %w", q.Path, err))
				return
			}
			docs, err := drainDocuments(qsnap.Documents)
			if err != nil {
				onError(fmt.Errorf("subscribe %s: %w", q.Path, err))
				continue
			}
			onSnapshot(docs)
		}
	}()
	return handleFunc(cancel)
}

func (s *firestoreStore) QueryEquals(ctx context.Context, collectionPath, field string, value interface{}) ([]Document, error) {
	it := s.client.Collection(collectionPath).Where(field, "==", value).Documents(ctx)
	defer it.Stop()
	docs, err := drainDocuments(it)
	if err != nil {
		return nil, fmt.Errorf("query %s where %s == %v: %w", collectionPath, field, value, err)
	}
	return docs, nil
}

func (s *firestoreStore) NewID(collectionPath string) string {
	return s.client.Collection(collectionPath).NewDoc().ID
}

func drainDocuments(it *firestore.DocumentIterator) ([]Document, error) {
	var docs []Document
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			return docs, nil
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, Document{ID: snap.Ref.ID, Data: snap.Data()})
	}
}

// handleFunc adapts a cancel func to the Handle interface.
type handleFunc func()

func (f handleFunc) Cancel() { f() }
