// Package common provides the protocol types, configuration structures and
// logging setup shared by the mkv client, server and transports.
//
// Key Components:
//
//   - Request / Response: the command envelope exchanged between client and
//     server. A Response always carries a Header (status, error kind, message,
//     compression flag) and a Content (payload, compression flag).
//
//   - Command, Status, ErrorKind: closed enumerations of the recognized
//     commands, outcomes and failure kinds. Clients branch on ErrorKind.
//
//   - Wire value helpers (AsBytes, AsInt, AsList, AsMap): the serializers
//     decode positional arguments into different Go types, these helpers
//     accept every variant.
//
//   - PackResponse / UnpackResponse: the one byte frame flag in front of every
//     serialized response and the optional zstd compression of its body.
//
//   - ServerConfig / ClientConfig: configuration for both sides, filled by
//     the cmd package from flags, environment and config files.
//
//   - Logger: a logrus backed implementation of dragonboat's logger.ILogger.
//     Packages declare their logger with logger.GetLogger("<pkg>") and
//     InitLoggers installs the factory and level for all of them.
package common
