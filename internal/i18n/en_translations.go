// Copyright © 2021 Kaleido, Inc.
//
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package i18n

//revive:disable
var (
	MsgConfigFailed              = ffm("EIDA10101", "Failed to read config: %s")
	MsgAPIServerStartFailed      = ffm("EIDA10102", "Unable to start listener on %s")
	MsgTLSConfigFailed           = ffm("EIDA10103", "Failed to initialize TLS configuration")
	MsgInvalidCAFile             = ffm("EIDA10104", "Invalid CA certificates file")
	Msg404NotFound               = ffm("EIDA10105", "Not found", 404)
	MsgRequestTimeout            = ffm("EIDA10106", "The request with id '%s' timed out after %.2fms", 408)
	MsgContextCanceled           = ffm("EIDA10107", "Context cancelled")
	MsgUnsupportedParameter      = ffm("EIDA10108", "Parameter '%s' is not supported", 400)
	MsgInvalidParameterValue     = ffm("EIDA10109", "Invalid value '%s' for parameter '%s'", 400)
	MsgEmptyPostRequest          = ffm("EIDA10110", "Empty POST request", 400)
	MsgSNCLNotConstrained        = ffm("EIDA10111", "At least one of station, channel or location must be constrained", 400)
	MsgPostBodyTooLarge          = ffm("EIDA10112", "POST request exceeds the limit of %d bytes", 413)
	MsgRequestURITooLarge        = ffm("EIDA10113", "Request URI exceeds the limit of %d characters", 414)
	MsgPostBodyReadFailed        = ffm("EIDA10114", "Failed to read POST request body", 400)
	MsgRoutingNodeMissing        = ffm("EIDA10115", "No routing server configured for node '%s' or default node '%s'", 500)
	MsgFetchToolNotFound         = ffm("EIDA10116", "Fetch tool '%s' could not be found", 500)
	MsgTempFileFailed            = ffm("EIDA10117", "Failed to write temporary file '%s'", 500)
	MsgInvalidDatetime           = ffm("EIDA10118", "Not a valid FDSNWS datetime: '%s'", 400)
	MsgInvalidPostLine           = ffm("EIDA10119", "Invalid POST request line: '%s'", 400)
	MsgInvalidByteSize           = ffm("EIDA10120", "Invalid size '%s' for '%s'")
	MsgNodeRegistryLoadFailed    = ffm("EIDA10121", "Failed to load node registry from %s: %s")
	MsgNodeRegistryInvalid       = ffm("EIDA10122", "Node registry entry '%s' is invalid")
	MsgUnknownDatabasePlugin     = ffm("EIDA10123", "Unknown database plugin '%s'")
	MsgDBInitFailed              = ffm("EIDA10124", "Database initialization failed")
	MsgDBMigrationFailed         = ffm("EIDA10125", "Database migration failed")
	MsgDBBeginFailed             = ffm("EIDA10126", "Database begin transaction failed", 503)
	MsgDBQueryBuildFailed        = ffm("EIDA10127", "Database query builder failed")
	MsgDBQueryFailed             = ffm("EIDA10128", "Database query failed", 503)
	MsgDBInsertFailed            = ffm("EIDA10129", "Database insert failed")
	MsgDBUpdateFailed            = ffm("EIDA10130", "Database update failed")
	MsgDBCommitFailed            = ffm("EIDA10131", "Database commit failed")
	MsgDBReadErr                 = ffm("EIDA10132", "Database resultset read error from table '%s'")
	MsgUnsupportedRoutingService = ffm("EIDA10134", "Routing service '%s' is not supported", 400)
	MsgTimeWindowInverted        = ffm("EIDA10135", "Start time must be before end time", 400)
	MsgInvalidArgv               = ffm("EIDA10136", "Invalid fetch tool argument vector: %s")
	MsgRouteFieldMissing         = ffm("EIDA10137", "Stream route is missing field '%s'")
	MsgDBDeleteFailed            = ffm("EIDA10138", "Database delete failed")
	MsgCacheMissSizeLimitKey     = ffm("EIDA10139", "Could not initialize cache - size limit config key is not provided")
	MsgCacheMissTTLKey           = ffm("EIDA10140", "Could not initialize cache - ttl config key is not provided")
	MsgCacheConfigKeyMismatch    = ffm("EIDA10141", "Could not initialize cache - '%s' and '%s' do not have identical prefix, mismatching prefixes are: '%s','%s'")
	MsgCacheUnexpectedSizeKey    = ffm("EIDA10142", "Could not initialize cache - '%s' is not an expected size configuration key suffix. Expected values are: 'size', 'limit'")
	MsgInvalidOutputOption       = ffm("EIDA10143", "Invalid output type: %s")
	MsgCommandRequired           = ffm("EIDA10144", "A command is required: federator or stationlite")
)
