package schema

// catalogQuery builds the whole catalog as one JSON document. Every
// aggregate is ordered so the same migrations always give the same bytes.
const catalogQuery = `
WITH enums AS (
    SELECT
        n.nspname AS enum_schema,
        t.typname AS enum_name,
        array_agg(e.enumlabel ORDER BY e.enumsortorder) AS enum_values
    FROM pg_catalog.pg_type t
    JOIN pg_catalog.pg_enum e ON e.enumtypid = t.oid
    JOIN pg_catalog.pg_namespace n ON n.oid = t.typnamespace
    WHERE n.nspname <> 'information_schema'
      AND n.nspname NOT LIKE 'pg\_%'
    GROUP BY n.nspname, t.typname
),

columns AS (
    SELECT
        n.nspname AS schema_name,
        c.relname AS table_name,
        c.relkind,
        a.attnum,
        a.attname AS column_name,
        jsonb_build_object(
            'name', CASE WHEN t.typcategory = 'A' THEN te.typname ELSE t.typname END,
            'schema_name', CASE WHEN t.typcategory = 'A' THEN ne.nspname ELSE tn.nspname END,
            'display', pg_catalog.format_type(t.oid, NULL),
            'is_composite', t.typtype = 'c',
            'is_array', t.typcategory = 'A',
            'array_dimensions', a.attndims
        ) AS type,
        pg_catalog.pg_get_expr(ad.adbin, ad.adrelid) AS default_value,
        NOT a.attnotnull AS is_nullable,
        EXISTS (
            SELECT 1 FROM pg_catalog.pg_constraint pk
            WHERE pk.conrelid = c.oid AND pk.contype = 'p' AND a.attnum = ANY (pk.conkey)
        ) AS is_primary_key,
        EXISTS (
            SELECT 1 FROM pg_catalog.pg_constraint uq
            WHERE uq.conrelid = c.oid AND uq.contype = 'u' AND a.attnum = ANY (uq.conkey)
        ) AS is_unique,
        fk.foreign_table_name IS NOT NULL AS is_foreign_key,
        fk.foreign_table_schema,
        fk.foreign_table_name
    FROM pg_catalog.pg_class c
    JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
    JOIN pg_catalog.pg_attribute a ON a.attrelid = c.oid
    JOIN pg_catalog.pg_type t ON t.oid = a.atttypid
    JOIN pg_catalog.pg_namespace tn ON tn.oid = t.typnamespace
    LEFT JOIN pg_catalog.pg_type te ON te.oid = t.typelem AND t.typcategory = 'A'
    LEFT JOIN pg_catalog.pg_namespace ne ON ne.oid = te.typnamespace
    LEFT JOIN pg_catalog.pg_attrdef ad ON ad.adrelid = c.oid AND ad.adnum = a.attnum
    LEFT JOIN LATERAL (
        SELECT fn.nspname AS foreign_table_schema, fc.relname AS foreign_table_name
        FROM pg_catalog.pg_constraint con
        JOIN pg_catalog.pg_class fc ON fc.oid = con.confrelid
        JOIN pg_catalog.pg_namespace fn ON fn.oid = fc.relnamespace
        WHERE con.conrelid = c.oid AND con.contype = 'f' AND a.attnum = ANY (con.conkey)
        ORDER BY con.conname
        LIMIT 1
    ) fk ON true
    WHERE c.relkind IN ('r', 'p', 'v', 'm', 'c')
      AND a.attnum > 0
      AND NOT a.attisdropped
      AND n.nspname <> 'information_schema'
      AND n.nspname NOT LIKE 'pg\_%'
),

schemas AS (
    SELECT schema_name FROM columns
    UNION
    SELECT enum_schema FROM enums
)

SELECT jsonb_build_object(
    'schemas', coalesce(jsonb_agg(
        jsonb_build_object(
            'name', s.schema_name,
            'enums', (
                SELECT coalesce(jsonb_agg(
                    jsonb_build_object('name', e.enum_name, 'values', e.enum_values)
                    ORDER BY e.enum_name
                ), '[]'::jsonb)
                FROM enums e
                WHERE e.enum_schema = s.schema_name
            ),
            'models', (
                SELECT coalesce(jsonb_agg(
                    jsonb_build_object(
                        'name', m.table_name,
                        'kind', CASE m.relkind
                            WHEN 'r' THEN 'table'
                            WHEN 'p' THEN 'table'
                            WHEN 'v' THEN 'view'
                            WHEN 'm' THEN 'materialized view'
                            WHEN 'c' THEN 'composite'
                        END,
                        'columns', (
                            SELECT coalesce(jsonb_agg(
                                jsonb_build_object(
                                    'name', col.column_name,
                                    'type', col.type,
                                    'is_nullable', col.is_nullable,
                                    'default', col.default_value,
                                    'is_unique', col.is_unique,
                                    'is_primary_key', col.is_primary_key,
                                    'is_foreign_key', col.is_foreign_key,
                                    'foreign_table_schema', col.foreign_table_schema,
                                    'foreign_table_name', col.foreign_table_name
                                )
                                ORDER BY col.attnum
                            ), '[]'::jsonb)
                            FROM columns col
                            WHERE col.schema_name = s.schema_name
                              AND col.table_name = m.table_name
                        )
                    )
                    ORDER BY m.table_name
                ), '[]'::jsonb)
                FROM (
                    SELECT DISTINCT table_name, relkind
                    FROM columns
                    WHERE schema_name = s.schema_name
                ) m
            )
        )
        ORDER BY s.schema_name
    ), '[]'::jsonb)
)::text AS result
FROM schemas s
`
