package consumerWorker

import (
	"context"
	"encoding/json"

	"github.com/wb-go/wbf/zlog"

	"circolo/internal/dto"
	"circolo/internal/mailer"
	"circolo/internal/rabbit"
	"circolo/internal/repo"
)

// Reader consumes registration lifecycle messages and mails the player.
// Mail failures are logged, never retried into the queue forever: a message
// with an unknown player or tournament is acked and dropped.
type Reader struct {
	RMQ    *rabbit.Client
	repo   repo.Repository
	mail   *mailer.Mailer
	done   chan struct{}
	cancel context.CancelFunc
}

func NewReader(rmq *rabbit.Client, repo repo.Repository, mail *mailer.Mailer) *Reader {
	return &Reader{
		RMQ:  rmq,
		repo: repo,
		mail: mail,
		done: make(chan struct{}),
	}
}

func (r *Reader) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	zlog.Logger.Info().Msg("RabbitMQ notification reader started")

	go func() {
		defer close(r.done)

		handler := func(body []byte) error {
			var msg dto.RegistrationNotifyMessage
			if err := json.Unmarshal(body, &msg); err != nil {
				zlog.Logger.Error().
					Err(err).
					Msgf("Failed to unmarshal message: %s", string(body))
				return nil
			}

			zlog.Logger.Info().
				Int64("registration_id", msg.RegistrationID).
				Str("stato", msg.Stato).
				Msg("Received registration notification")

			player, err := r.repo.GetPlayerByID(cctx, msg.PlayerID)
			if err != nil {
				zlog.Logger.Error().
					Err(err).
					Int64("player_id", msg.PlayerID).
					Msg("Failed to get player from DB in worker")
				return nil
			}

			tournament, err := r.repo.GetTournamentByID(cctx, msg.TournamentID)
			if err != nil {
				zlog.Logger.Error().
					Err(err).
					Int64("tournament_id", msg.TournamentID).
					Msg("Failed to get tournament from DB in worker")
				return nil
			}

			if err := r.mail.SendRegistrationEmail(tournament.Name, msg.Stato, player.Email); err != nil {
				zlog.Logger.Warn().
					Err(err).
					Str("email", player.Email).
					Msg("Failed to send notification e-mail")
			}

			return nil
		}

		if err := r.RMQ.Consume(handler); err != nil {
			zlog.Logger.Error().Err(err).Msg("Failed to start consuming")
			return
		}

		<-cctx.Done()
		zlog.Logger.Info().Msg("RabbitMQ notification reader stopped by context")
	}()
}

func (r *Reader) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}
