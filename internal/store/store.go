package store

import (
	"strings"
	"time"
	"unicode/utf8"

	"QH_quranhabits/internal/model"
	"QH_quranhabits/pkg/logger"

	"go.uber.org/zap"
)

const (
	ChallengesKey = "qh_challenges_v6"
	ProgressKey   = "qh_progress_v6"

	RecordChallenges = "challenges"
	RecordProgress   = "progress"

	DefaultDeviceID = "default"
	maxDeviceIDLen  = 64
)

// Session scopes persistence to one device and, when signed in, one user.
type Session struct {
	DeviceID string
	User     *model.User
}

func (s Session) Authenticated() bool {
	return s.User != nil
}

// NormalizeDeviceID keeps device ids usable as cache namespaces: valid UTF-8 of
// at most maxDeviceIDLen bytes, cut on a rune boundary.
func NormalizeDeviceID(id string) string {
	id = strings.TrimSpace(strings.ToValidUTF8(id, ""))
	if len(id) > maxDeviceIDLen {
		cut := maxDeviceIDLen
		for cut > 0 && !utf8.RuneStart(id[cut]) {
			cut--
		}
		id = strings.TrimSpace(id[:cut])
	}
	if id == "" {
		return DefaultDeviceID
	}
	return id
}

var ChallengeCodec = Codec[[]model.Challenge]{
	LocalKey: ChallengesKey,
	Kind:     RecordChallenges,
	Encode:   model.EncodeChallenges,
	Decode: func(data []byte) ([]model.Challenge, error) {
		challenges, skipped, err := model.DecodeChallenges(data)
		for _, s := range skipped {
			logger.Named("store").Warn("skipping unreadable challenge", zap.Error(s))
		}
		return challenges, err
	},
	Default: func() []model.Challenge {
		return []model.Challenge{}
	},
}

var ProgressCodec = Codec[model.UserProgress]{
	LocalKey: ProgressKey,
	Kind:     RecordProgress,
	Encode:   model.EncodeProgress,
	Decode:   model.DecodeProgress,
	Default:  model.DefaultProgress,
}

// Store is the persistence of one session: the challenge list and the reader progress.
type Store struct {
	Challenges *Record[[]model.Challenge]
	Progress   *Record[model.UserProgress]
	session    Session
}

func (s *Store) Session() Session {
	return s.session
}

type Factory struct {
	local  LocalCache
	remote RemoteRecords
	now    func() time.Time
}

// NewFactory builds stores over the given caches. remote may be nil, in which
// case every session behaves as unauthenticated for persistence.
func NewFactory(local LocalCache, remote RemoteRecords) *Factory {
	return &Factory{
		local:  local,
		remote: remote,
		now:    time.Now,
	}
}

func (f *Factory) Open(session Session) *Store {
	session.DeviceID = NormalizeDeviceID(session.DeviceID)

	log := logger.Named("store").With(zap.String("device_id", session.DeviceID))
	if session.User != nil {
		log = log.With(zap.String("user_id", session.User.ID.String()))
	}

	return &Store{
		Challenges: newRecord(ChallengeCodec, f, session, log),
		Progress:   newRecord(ProgressCodec, f, session, log),
		session:    session,
	}
}

func newRecord[T any](codec Codec[T], f *Factory, session Session, log *zap.Logger) *Record[T] {
	return &Record[T]{
		codec:   codec,
		local:   f.local,
		remote:  f.remote,
		session: session,
		now:     f.now,
		log:     log.With(zap.String("record", codec.Kind)),
	}
}
