// Package api serves a read-only operator view of the projection: progress,
// anomalies, dead letters and content records.
// @title ModerationIndexor API
// @version 1.0
// @description Read-only REST API over the moderation projection built by ModerationIndexor
// @contact.name API Support
// @contact.url https://github.com/goran-ethernal/ModerationIndexor
// @license.name Apache 2.0
// @license.url https://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8080
// @basePath /api/v1
// @schemes http https
package api
