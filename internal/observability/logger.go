package observability

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog for structured logging.
type Logger struct {
	logger zerolog.Logger
}

// NewLogger creates a new structured logger.
func NewLogger(service, version string, output io.Writer) *Logger {
	if output == nil {
		output = os.Stdout
	}

	zerolog.TimeFieldFormat = time.RFC3339

	logger := zerolog.New(output).With().
		Timestamp().
		Str("service", service).
		Str("version", version).
		Str("host", getHostname()).
		Logger()

	return &Logger{
		logger: logger,
	}
}

// ConsoleWriterFromEnv wraps w in zerolog's console writer when
// LOG_PRETTY is set, for interactive use. JSON output otherwise.
func ConsoleWriterFromEnv(w io.Writer) io.Writer {
	if os.Getenv("LOG_PRETTY") != "" {
		return zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return w
}

// InitLevelFromEnv applies the LOG_LEVEL environment variable to the
// global zerolog level. An unset or unparseable value leaves the default in
// place; absence of the variable is never an error.
func InitLevelFromEnv() {
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if lvl, err := zerolog.ParseLevel(raw); err == nil {
			zerolog.SetGlobalLevel(lvl)
		}
	}
}

// WithConnection adds connection_id context (the peer's IPv4 socket
// address, stringified) to the logger.
func (l *Logger) WithConnection(connectionID string) *Logger {
	return &Logger{
		logger: l.logger.With().Str("connection_id", connectionID).Logger(),
	}
}

// WithRequest adds request_id context to the logger.
func (l *Logger) WithRequest(requestID uint32) *Logger {
	return &Logger{
		logger: l.logger.With().Uint32("request_id", requestID).Logger(),
	}
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string) {
	l.logger.Debug().Msg(msg)
}

// Info logs an info message.
func (l *Logger) Info(msg string) {
	l.logger.Info().Msg(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string) {
	l.logger.Warn().Msg(msg)
}

// Error logs an error message.
func (l *Logger) Error(err error, msg string) {
	l.logger.Error().Err(err).Msg(msg)
}

// Fatal logs a fatal message and exits.
func (l *Logger) Fatal(err error, msg string) {
	l.logger.Fatal().Err(err).Msg(msg)
}

// ConnectionAccepted logs a newly accepted TCP connection.
func (l *Logger) ConnectionAccepted(remoteAddr string) {
	l.logger.Info().
		Str("remote_addr", remoteAddr).
		Msg("connection accepted")
}

// ConnectionStateChanged logs a connection's state-machine transition.
func (l *Logger) ConnectionStateChanged(remoteAddr, from, to string) {
	l.logger.Debug().
		Str("remote_addr", remoteAddr).
		Str("from", from).
		Str("to", to).
		Msg("connection state changed")
}

// ConnectionTerminated logs a connection tearing down.
func (l *Logger) ConnectionTerminated(remoteAddr, reason string) {
	l.logger.Info().
		Str("remote_addr", remoteAddr).
		Str("reason", reason).
		Msg("connection terminated")
}

// TransportError logs a stream-level failure (header parse, inflate, IO).
// Always followed by connection termination.
func (l *Logger) TransportError(remoteAddr string, err error) {
	l.logger.Error().
		Str("remote_addr", remoteAddr).
		Err(err).
		Msg("transport error, terminating connection")
}

// DecodeError logs a malformed packet body or id mismatch. The connection
// stays up; only the single packet is dropped.
func (l *Logger) DecodeError(remoteAddr string, packetID uint16, err error) {
	l.logger.Error().
		Str("remote_addr", remoteAddr).
		Uint32("packet_id", uint32(packetID)).
		Err(err).
		Msg("decode error, dropping packet")
}

// UnknownPacketID logs an inbound frame whose id the server does not
// recognise as a client-origin packet.
func (l *Logger) UnknownPacketID(remoteAddr string, packetID uint16) {
	l.logger.Error().
		Str("remote_addr", remoteAddr).
		Uint32("packet_id", uint32(packetID)).
		Msg("unknown packet id, dropping")
}

// UnroutedPacket logs a decoded packet with no subscribed handler.
func (l *Logger) UnroutedPacket(remoteAddr string, packetID uint16) {
	l.logger.Warn().
		Str("remote_addr", remoteAddr).
		Uint32("packet_id", uint32(packetID)).
		Msg("no handler subscribed for packet type")
}

// GeneratorNotFound logs an application error for an unregistered recipe
// name named by a request.
func (l *Logger) GeneratorNotFound(remoteAddr, generatorName string, requestID uint32) {
	l.logger.Warn().
		Str("remote_addr", remoteAddr).
		Str("generator_name", generatorName).
		Uint32("request_id", requestID).
		Msg("generator not found")
}

// GenerationFailed logs a factory or generate-call failure for a request.
func (l *Logger) GenerationFailed(remoteAddr, generatorName string, requestID uint32, err error) {
	l.logger.Warn().
		Str("remote_addr", remoteAddr).
		Str("generator_name", generatorName).
		Uint32("request_id", requestID).
		Err(err).
		Msg("generation failed")
}

// RequestDispatched logs a generation request entering dispatch, tagged
// with the correlation id that follows it through tracing.
func (l *Logger) RequestDispatched(remoteAddr, generatorName string, requestID uint32, kind, correlationID string) {
	l.logger.Debug().
		Str("remote_addr", remoteAddr).
		Str("generator_name", generatorName).
		Uint32("request_id", requestID).
		Str("kind", kind).
		Str("correlation_id", correlationID).
		Msg("request dispatched")
}

// PeerProtocolError logs a ProtocolError packet the client sent to us.
func (l *Logger) PeerProtocolError(remoteAddr, kind string, fatal bool) {
	l.logger.Warn().
		Str("remote_addr", remoteAddr).
		Str("kind", kind).
		Bool("fatal", fatal).
		Msg("peer reported protocol error")
}

// RequestCompleted logs a request's chunk count once FinishRequest has
// been sent.
func (l *Logger) RequestCompleted(remoteAddr string, requestID uint32, chunkCount int) {
	l.logger.Info().
		Str("remote_addr", remoteAddr).
		Uint32("request_id", requestID).
		Int("chunk_count", chunkCount).
		Msg("request completed")
}

// Helper function to get hostname.
func getHostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return hostname
}
