package mysql

const upsertAccommodationSQL = `
INSERT INTO accommodations
  (supplier, accommodation_id, name, rating, country, locality, address, lat, lon, amenities, photos, raw)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  name       = VALUES(name),
  rating     = VALUES(rating),
  country    = VALUES(country),
  locality   = VALUES(locality),
  address    = VALUES(address),
  lat        = VALUES(lat),
  lon        = VALUES(lon),
  amenities  = VALUES(amenities),
  photos     = VALUES(photos),
  raw        = VALUES(raw),
  updated_at = CURRENT_TIMESTAMP
`

const getAccommodationSQL = `
SELECT
  supplier,
  accommodation_id,
  name,
  rating,
  country,
  locality,
  address,
  lat,
  lon,
  amenities,
  photos,
  raw
FROM accommodations
WHERE supplier = ? AND accommodation_id = ?
`

const listMappedSQL = `
SELECT supplier, code
FROM accommodation_mappings
ORDER BY supplier, code
`

const insertMissSQL = `
INSERT INTO ingest_misses (supplier, accommodation_id, http_status, reason)
VALUES (?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  http_status = VALUES(http_status),
  reason      = VALUES(reason),
  seen_at     = CURRENT_TIMESTAMP
`

const agentSettingsSQL = `
SELECT settings FROM agent_search_settings WHERE agent_id = ? AND agency_id = ?
`

const agencySettingsSQL = `
SELECT settings FROM agency_search_settings WHERE agency_id = ?
`

const upsertAgentSettingsSQL = `
INSERT INTO agent_search_settings (agent_id, agency_id, settings)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE settings = VALUES(settings)
`

const upsertAgencySettingsSQL = `
INSERT INTO agency_search_settings (agency_id, settings)
VALUES (?, ?)
ON DUPLICATE KEY UPDATE settings = VALUES(settings)
`

// Policies apply in compounding order: global, then agency, then agent.
const markupPoliciesSQL = `
SELECT id, scope, scope_id, percent
FROM markup_policies
WHERE scope = 'global'
   OR (scope = 'agency' AND scope_id = ?)
   OR (scope = 'agent' AND scope_id = ?)
ORDER BY FIELD(scope, 'global', 'agency', 'agent'), id
`

// Prefix for the IN list built per call.
const mappingsByHtPrefix = `
SELECT ht_id, supplier, code
FROM accommodation_mappings
WHERE ht_id IN (`

// The inner select finds every report touching one of the pairs; the outer one
// expands those reports to all their members.
const duplicateGroupsPrefix = `
SELECT d.report_id, d.supplier, d.accommodation_id
FROM accommodation_duplicates d
WHERE d.report_id IN (
  SELECT report_id FROM accommodation_duplicates WHERE (supplier, accommodation_id) IN (`

const duplicateGroupsSuffix = `))
ORDER BY d.report_id, d.supplier, d.accommodation_id
`
